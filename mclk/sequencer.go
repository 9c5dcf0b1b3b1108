// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package mclk is the memory clock sequencer. It switches the memory PLL
// with memory traffic stopped in self refresh and reports the achieved
// frequency and stop time to the clock DAG's companion node.
package mclk

import (
	"fmt"
	"sync"
	"time"

	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/reg"
	"github.com/platinasystems/log"
)

// Sequencer drives Pll, a memory PLL node that no clock domain programs,
// around a self refresh handshake.
type Sequencer struct {
	Bus reg.Bus
	Pll *clk.APll

	// SelfRefresh requests that the memory controller park; Ack follows
	// it once parked or resumed.
	SelfRefresh reg.Field
	Ack         reg.Field
	AckTimeout  time.Duration

	ToleranceKHz uint32

	mutex sync.Mutex
	last  clk.SwitchResult
}

func (seq *Sequencer) handshake(v uint32) error {
	seq.SelfRefresh.Set(seq.Bus, v)
	want := seq.Ack.Insert(0, v)
	_, err := reg.Poll(seq.Bus, seq.Ack.Addr, seq.Ack.Mask(), want,
		seq.AckTimeout)
	if err != nil {
		return fmt.Errorf("self refresh %d: %w", v, err)
	}
	return nil
}

// RequestFrequencySwitch relocks the memory PLL nearest khz.
func (seq *Sequencer) RequestFrequencySwitch(khz uint32) (clk.SwitchResult, error) {
	seq.mutex.Lock()
	defer seq.mutex.Unlock()
	var res clk.SwitchResult
	var s clk.Signal
	if err := seq.Pll.Read(&s, true); err != nil {
		return res, err
	}
	target := clk.NewTarget(khz, clk.SourcePll, clk.Path{}).
		WithTolerance(seq.ToleranceKHz, seq.ToleranceKHz)
	if err := seq.Pll.Config(&s, 1, target, false); err != nil {
		return res, err
	}
	start := time.Now()
	if err := seq.handshake(1); err != nil {
		return res, err
	}
	perr := seq.Pll.Program(1)
	// resume traffic even if the relock failed
	if err := seq.handshake(0); err != nil {
		log.Print("daemon", "err", "mclk: ", err)
		if perr == nil {
			perr = err
		}
	}
	res.StopTime = time.Since(start)
	if perr != nil {
		return res, perr
	}
	if err := seq.Pll.Read(&s, true); err != nil {
		return res, err
	}
	res.AchievedKHz = s.FreqKHz
	seq.last = res
	log.Print("daemon", "info", "mclk: ", khz, " KHz achieved ",
		res.AchievedKHz, " KHz stopped ", res.StopTime)
	return res, nil
}

// Last returns the most recent successful switch.
func (seq *Sequencer) Last() clk.SwitchResult {
	seq.mutex.Lock()
	defer seq.mutex.Unlock()
	return seq.last
}
