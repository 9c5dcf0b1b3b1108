// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/platinasystems/clk3/reg"
)

const (
	testPllCtl   = 0x10
	testPllCoeff = 0x14
	testSysMux   = 0x20
	testSysDiv   = 0x24
	testMclk     = 0x30
)

var testLimits = PllLimits{
	MinM: 1, MaxM: 31,
	MinN: 8, MaxN: 1023,
	MinPl: 1, MaxPl: 31,
	MinVcoKHz: 500000, MaxVcoKHz: 2600000,
	MinUKHz: 1000, MaxUKHz: 27000,
}

type testSchematic struct {
	regs   *reg.Map
	pll    *APll
	div    *Divider
	domain *FreqDomain
}

// newTestSchematic wires a sysclk like domain: a mux of a divided shared
// PLL (alt path) and a domain PLL, booted on the PLL at 810 MHz.
func newTestSchematic() *testSchematic {
	m := reg.NewMap()
	m.OnWrite(testPllCtl, func(m *reg.Map, addr, v uint32) {
		if v&1 != 0 {
			m.Poke(addr, v|2)
		} else {
			m.Poke(addr, v&^2)
		}
	})
	xtal := NewXtal("xtal", 27000)
	sppll := NewReadOnly("sppll0", NewXtal("sppll0-vco", 1620000))
	pll := &APll{
		NodeName:    "syspll",
		Bus:         m,
		Enable:      reg.Field{Addr: testPllCtl, Shift: 0, Width: 1},
		Lock:        reg.Field{Addr: testPllCtl, Shift: 1, Width: 1},
		M:           reg.Field{Addr: testPllCoeff, Shift: 0, Width: 8},
		N:           reg.Field{Addr: testPllCoeff, Shift: 8, Width: 10},
		Pl:          reg.Field{Addr: testPllCoeff, Shift: 18, Width: 6},
		Input:       xtal,
		Limits:      testLimits,
		LockTimeout: 10 * time.Millisecond,
	}
	div := NewDivider("sysdiv", m, reg.Field{Addr: testSysDiv, Width: 4},
		sppll, 1, 15)
	mux := NewMux("sysmux", m, reg.Field{Addr: testSysMux, Width: 1},
		MuxInput{Src: div, Source: SourceAlt},
		MuxInput{Src: pll, Source: SourcePll, Value: 1},
	)
	d := NewDomain(Sysclk, mux, 500)
	d.AltPathMaxKHz = 800000
	d.AltPath = PathOf(0)
	d.PllPath = PathOf(1)

	m.Poke(testPllCtl, 3)
	m.Poke(testPllCoeff, 1|30<<8|1<<18)
	m.Poke(testSysMux, 1)
	return &testSchematic{regs: m, pll: pll, div: div, domain: d}
}

func (ts *testSchematic) read(t *testing.T) {
	t.Helper()
	if err := ts.domain.Read(); err != nil {
		t.Fatal(err)
	}
	if got := ts.domain.Output.FreqKHz; got != 810000 {
		t.Fatalf("boot %d KHz", got)
	}
	ts.regs.ResetWrites()
}

func TestDomainWithinMargin(t *testing.T) {
	ts := newTestSchematic()
	ts.read(t)
	d := ts.domain
	for i := 0; i < 2; i++ {
		if err := d.Config(NewTarget(810200, SourceDefault, Path{})); err != nil {
			t.Fatal(err)
		}
		if d.PhaseCount != 1 {
			t.Fatalf("config %d: phase count %d", i, d.PhaseCount)
		}
		if err := d.Program(); err != nil {
			t.Fatal(err)
		}
	}
	if n := ts.regs.Writes(); n != 0 {
		t.Fatalf("%d register writes", n)
	}
	d.Force = true
	if err := d.Config(NewTarget(810200, SourceDefault, Path{}).WithTolerance(500, 500)); err != nil {
		t.Fatal(err)
	}
	if d.PhaseCount != 2 {
		t.Fatalf("forced phase count %d", d.PhaseCount)
	}
}

func TestDomainPllSwitch(t *testing.T) {
	ts := newTestSchematic()
	ts.read(t)
	d := ts.domain
	target := NewTarget(1200000, SourceDefault, Path{}).WithTolerance(500, 500)
	if err := d.Config(target); err != nil {
		t.Fatal(err)
	}
	if d.PhaseCount != 2 {
		t.Fatalf("phase count %d", d.PhaseCount)
	}
	if err := d.Program(); err != nil {
		t.Fatal(err)
	}
	if err := d.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if !target.Range.Contains(d.Output.FreqKHz) || d.Output.Source != SourcePll {
		t.Fatal(d.Output)
	}
	if err := d.Read(); err != nil {
		t.Fatal(err)
	}
	if !target.Range.Contains(d.Output.FreqKHz) {
		t.Fatalf("read back %v", d.Output)
	}
	if ts.pll.Enable.Get(ts.regs) != 1 || ts.pll.Lock.Get(ts.regs) != 1 {
		t.Fatal("pll not running")
	}
}

func TestDomainAltPath(t *testing.T) {
	ts := newTestSchematic()
	ts.read(t)
	d := ts.domain
	if err := d.Switch(NewTarget(405000, SourceAlt, Path{})); err != nil {
		t.Fatal(err)
	}
	if d.Output.FreqKHz != 405000 || d.Output.Source != SourceAlt {
		t.Fatal(d.Output)
	}
	if !d.PathSourceAgrees(d.Output.Path, SourceAlt) {
		t.Fatalf("path %v isn't alt", d.Output.Path)
	}
	if d.PathSourceAgrees(d.Output.Path, SourcePll) {
		t.Fatalf("path %v is pll", d.Output.Path)
	}
	if v := ts.regs.Read32(testSysDiv); v != 4 {
		t.Fatalf("divider %d", v)
	}
	if ts.pll.Enable.Get(ts.regs) != 0 {
		t.Fatal("inactive pll left enabled")
	}
	if err := d.Read(); err != nil {
		t.Fatal(err)
	}
	if d.Output.FreqKHz != 405000 || d.Output.Source != SourceAlt {
		t.Fatalf("read back %v", d.Output)
	}
	t.Run("back-to-pll", func(t *testing.T) {
		if err := d.Switch(NewTarget(810000, SourceDefault, Path{})); err != nil {
			t.Fatal(err)
		}
		if d.Output.Path != d.PllPath || ts.pll.Lock.Get(ts.regs) != 1 {
			t.Fatal(d.Output)
		}
	})
}

func TestDomainAltPathBoundary(t *testing.T) {
	ts := newTestSchematic()
	ts.read(t)
	d := ts.domain
	for _, x := range []struct {
		name   string
		target *Target
		want   error
	}{
		{"pll-below", NewTarget(799999, SourcePll, Path{}), ErrInvalidSource},
		{"alt-at", NewTarget(800000, SourceAlt, Path{}), ErrInvalidSource},
		{"alt-pll-path", NewTarget(405000, SourceAlt, PathOf(1)), ErrInvalidPath},
		{"pll-alt-path", NewTarget(1200000, SourcePll, PathOf(0)), ErrInvalidPath},
		{"bypass", NewTarget(27000, SourceBypass, Path{}), ErrInvalidSource},
		{"zero", NewTarget(0, SourceDefault, Path{}), ErrFreqNotSupported},
	} {
		t.Run(x.name, func(t *testing.T) {
			err := d.Config(x.target)
			if !errors.Is(err, x.want) {
				t.Fatalf("%v isn't %v", err, x.want)
			}
			if d.PhaseCount != 0 {
				t.Fatalf("phase count %d", d.PhaseCount)
			}
		})
	}
	t.Run("pll-at", func(t *testing.T) {
		target := NewTarget(800000, SourcePll, Path{}).WithTolerance(0, 5000)
		if err := d.Config(target); err != nil {
			t.Fatal(err)
		}
		if got := d.Configured(); got.Path != d.PllPath || !d.IsPllPath(got.Path) {
			t.Fatal(got)
		}
	})
	t.Run("default-routes", func(t *testing.T) {
		if err := d.Config(NewTarget(540000, SourceDefault, Path{})); err != nil {
			t.Fatal(err)
		}
		if got := d.Configured(); got.Path != d.AltPath || got.Source != SourceAlt {
			t.Fatal(got)
		}
	})
	if n := ts.regs.Writes(); n != 0 {
		t.Fatalf("config wrote %d registers", n)
	}
}

func TestDomainProgramPanics(t *testing.T) {
	ts := newTestSchematic()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	ts.domain.Program()
}

func TestDomainLockTimeout(t *testing.T) {
	ts := newTestSchematic()
	ts.read(t)
	ts.pll.LockTimeout = time.Millisecond
	ts.regs.OnWrite(testPllCtl, func(m *reg.Map, addr, v uint32) {
		m.Poke(addr, v&^2)
	})
	d := ts.domain
	err := d.Switch(NewTarget(1200000, SourceDefault, Path{}))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("%v isn't %v", err, ErrTimeout)
	}
	if d.Output.Valid() {
		t.Fatalf("output %v after failed program", d.Output)
	}
}

type fakeSwitcher struct {
	regs  *reg.Map
	calls int
}

func (f *fakeSwitcher) RequestFrequencySwitch(khz uint32) (SwitchResult, error) {
	f.calls++
	// the companion lands on the nearest MHz below
	f.regs.Poke(testMclk, khz/1000)
	return SwitchResult{AchievedKHz: khz / 1000 * 1000, StopTime: time.Microsecond}, nil
}

func TestDomainReread(t *testing.T) {
	m := reg.NewMap()
	m.Poke(testMclk, 3200)
	sw := &fakeSwitcher{regs: m}
	mclk := &Companion{
		NodeName: "mclk",
		Input: &Nafll{
			NodeName: "mclk-freq",
			Bus:      m,
			Freq:     reg.Field{Addr: testMclk, Width: 16},
			MinKHz:   100000,
			MaxKHz:   8000000,
			StepKHz:  1000,
		},
		Switcher: sw,
		MinKHz:   400000,
		MaxKHz:   8000000,
	}
	d := NewDomain(Mclk, mclk, 0)
	d.Reread = true
	if err := d.Read(); err != nil {
		t.Fatal(err)
	}
	if d.Output.FreqKHz != 3200000 || d.Output.Source != SourceCompanion {
		t.Fatal(d.Output)
	}
	target := NewTarget(1600500, SourceDefault, Path{}).WithTolerance(1000, 0)
	if err := d.Switch(target); err != nil {
		t.Fatal(err)
	}
	if sw.calls != 1 {
		t.Fatalf("%d companion calls", sw.calls)
	}
	if d.Output.FreqKHz != 1600000 {
		t.Fatal(d.Output)
	}
	if mclk.Last.AchievedKHz != 1600000 {
		t.Fatal(mclk.Last)
	}
}

func TestDomainPrint(t *testing.T) {
	ts := newTestSchematic()
	ts.read(t)
	buf := new(strings.Builder)
	ts.domain.Print(buf)
	if !strings.HasPrefix(buf.String(), "sysclk: 810000 KHz pll path 1") {
		t.Error(buf.String())
	}
	if !strings.Contains(buf.String(), "\t\txtal xtal: 27000 KHz\n") {
		t.Error(buf.String())
	}
}
