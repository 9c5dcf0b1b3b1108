// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"io"
	"time"
)

// SwitchResult is what a companion controller reports after a switch.
type SwitchResult struct {
	AchievedKHz uint32
	StopTime    time.Duration
}

// Switcher is a companion controller that performs a frequency switch on
// the caller's behalf. The request blocks until the switch completes or
// fails.
type Switcher interface {
	RequestFrequencySwitch(khz uint32) (SwitchResult, error)
}

// Companion is a leaf whose switch is delegated to a Switcher. It reads
// the resulting hardware state through Input but never writes it; the
// owning domain should re-read after Program since only the companion
// knows what it achieved.
type Companion struct {
	NodeName       string
	Input          FreqSrc
	Switcher       Switcher
	MinKHz, MaxKHz uint32

	// Last is the most recent companion report.
	Last SwitchResult

	khz [MaxPhases]uint32
}

func (c *Companion) Name() string      { return c.NodeName }
func (c *Companion) Inputs() []FreqSrc { return []FreqSrc{c.Input} }

func (c *Companion) Read(out *Signal, active bool) error {
	if err := c.Input.Read(out, active); err != nil {
		return err
	}
	out.Source = SourceCompanion
	c.khz[0] = out.FreqKHz
	return nil
}

func (c *Companion) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(c.NodeName, phase)
	switch target.Source {
	case SourceDefault, SourceCompanion:
	default:
		return fmt.Errorf("%s: can't serve %v: %w", c.NodeName,
			target.Source, ErrInvalidSource)
	}
	khz := target.FreqKHz
	if khz < c.MinKHz || khz > c.MaxKHz {
		return fmt.Errorf("%s: %d KHz outside of [%d, %d]: %w",
			c.NodeName, khz, c.MinKHz, c.MaxKHz, ErrFreqNotSupported)
	}
	*out = Signal{FreqKHz: khz, Source: SourceCompanion}
	if err := target.Conforms(c.NodeName, out); err != nil {
		return err
	}
	c.khz[phase] = khz
	return nil
}

func (c *Companion) Program(phase int) error {
	checkPhase(c.NodeName, phase)
	khz := c.khz[phase]
	if khz == 0 {
		panic(fmt.Errorf("%s: program phase %d before config",
			c.NodeName, phase))
	}
	if khz == c.khz[0] {
		return nil
	}
	res, err := c.Switcher.RequestFrequencySwitch(khz)
	if err != nil {
		return fmt.Errorf("%s: %w", c.NodeName, err)
	}
	c.Last = res
	c.khz[0] = res.AchievedKHz
	return nil
}

func (c *Companion) Cleanup(active bool) error { return nil }

func (c *Companion) Print(w io.Writer, phaseCount int) {
	fmt.Fprintf(w, "companion %s:", c.NodeName)
	for phase := 0; phase < phaseCount && phase < MaxPhases; phase++ {
		fmt.Fprintf(w, " [%d]=%d KHz", phase, c.khz[phase])
	}
	if c.Last.AchievedKHz != 0 {
		fmt.Fprintf(w, " last %d KHz stop %v", c.Last.AchievedKHz,
			c.Last.StopTime)
	}
	fmt.Fprintln(w)
	printInput(w, c.Input, phaseCount)
}
