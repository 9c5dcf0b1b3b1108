// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package mclk

import (
	"errors"
	"net"
	"net/rpc"
	"testing"
	"time"

	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/reg"
)

const (
	pllCtl   = 0x10
	pllCoeff = 0x14
	memCtl   = 0x20
)

func newSequencer() (*Sequencer, *reg.Map) {
	m := reg.NewMap()
	m.OnWrite(pllCtl, func(m *reg.Map, addr, v uint32) {
		m.Poke(addr, v&^2|(v&1)<<1)
	})
	m.OnWrite(memCtl, func(m *reg.Map, addr, v uint32) {
		m.Poke(addr, v&^0x100|(v&1)<<8)
	})
	m.Poke(pllCtl, 3)
	m.Poke(pllCoeff, 1|60<<8|1<<16)
	seq := &Sequencer{
		Bus: m,
		Pll: &clk.APll{
			NodeName: "mpll",
			Bus:      m,
			Enable:   reg.Field{Addr: pllCtl, Width: 1},
			Lock:     reg.Field{Addr: pllCtl, Shift: 1, Width: 1},
			M:        reg.Field{Addr: pllCoeff, Width: 8},
			N:        reg.Field{Addr: pllCoeff, Shift: 8, Width: 8},
			Pl:       reg.Field{Addr: pllCoeff, Shift: 16, Width: 4},
			Input:    clk.NewXtal("xtal", 27000),
			Limits: clk.PllLimits{
				MinM: 1, MaxM: 4,
				MinN: 16, MaxN: 255,
				MinPl: 1, MaxPl: 4,
				MinVcoKHz: 800000, MaxVcoKHz: 3400000,
				MinUKHz: 6750, MaxUKHz: 27000,
			},
			LockTimeout: time.Millisecond,
		},
		SelfRefresh:  reg.Field{Addr: memCtl, Width: 1},
		Ack:          reg.Field{Addr: memCtl, Shift: 8, Width: 1},
		AckTimeout:   time.Millisecond,
		ToleranceKHz: 1000,
	}
	return seq, m
}

func TestSequencer(t *testing.T) {
	seq, m := newSequencer()
	var refresh []uint32
	m.OnWrite(memCtl, func(m *reg.Map, addr, v uint32) {
		refresh = append(refresh, v&1)
	})
	res, err := seq.RequestFrequencySwitch(810000)
	if err != nil {
		t.Fatal(err)
	}
	if res.AchievedKHz != 810000 || res.StopTime <= 0 {
		t.Fatal(res)
	}
	if seq.Last() != res {
		t.Fatal(seq.Last())
	}
	if len(refresh) != 2 || refresh[0] != 1 || refresh[1] != 0 {
		t.Fatalf("self refresh %v", refresh)
	}
	if _, err = seq.RequestFrequencySwitch(100); !errors.Is(err, clk.ErrFreqNotSupported) {
		t.Fatalf("%v isn't %v", err, clk.ErrFreqNotSupported)
	}
}

func TestSequencerAckTimeout(t *testing.T) {
	seq, m := newSequencer()
	m.OnWrite(memCtl, func(m *reg.Map, addr, v uint32) {
		m.Poke(addr, v&^0x100)
	})
	_, err := seq.RequestFrequencySwitch(810000)
	if !errors.Is(err, clk.ErrTimeout) {
		t.Fatalf("%v isn't %v", err, clk.ErrTimeout)
	}
}

func TestClient(t *testing.T) {
	seq, _ := newSequencer()
	srv := rpc.NewServer()
	if err := srv.RegisterName("Mclk", NewServer(seq)); err != nil {
		t.Fatal(err)
	}
	fails := 2
	cl := NewClient(Name)
	cl.Backoff.Min = time.Microsecond
	cl.Backoff.Max = time.Millisecond
	cl.Dial = func(name string) (*rpc.Client, error) {
		if fails > 0 {
			fails--
			return nil, errors.New("not yet")
		}
		c, s := net.Pipe()
		go srv.ServeConn(s)
		return rpc.NewClient(c), nil
	}
	res, err := cl.RequestFrequencySwitch(1620000)
	if err != nil {
		t.Fatal(err)
	}
	if res.AchievedKHz != 1620000 {
		t.Fatal(res)
	}
	_, err = cl.RequestFrequencySwitch(100)
	if err == nil {
		t.Fatal("switched to 100 KHz")
	}
	cl.Dial = func(name string) (*rpc.Client, error) {
		return nil, errors.New("no " + name)
	}
	cl.Attempts = 2
	if _, err = cl.RequestFrequencySwitch(810000); err == nil || err.Error() != "mclkd: no mclkd" {
		t.Fatal(err)
	}
}
