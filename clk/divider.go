// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"io"
	"math"

	"github.com/platinasystems/clk3/reg"
)

// Divider divides its input by an integer held in a register field; a
// field value of zero divides by one.
type Divider struct {
	NodeName       string
	Bus            reg.Bus
	Div            reg.Field
	Input          FreqSrc
	MinDiv, MaxDiv uint32

	div [MaxPhases]uint32
}

func NewDivider(name string, bus reg.Bus, div reg.Field, input FreqSrc, min, max uint32) *Divider {
	if min == 0 || min > max || max > div.Max() {
		panic(fmt.Errorf("%s: divider range [%d, %d] doesn't fit %v",
			name, min, max, div))
	}
	return &Divider{
		NodeName: name,
		Bus:      bus,
		Div:      div,
		Input:    mustInput(name, input),
		MinDiv:   min,
		MaxDiv:   max,
	}
}

func (d *Divider) Name() string      { return d.NodeName }
func (d *Divider) Inputs() []FreqSrc { return []FreqSrc{d.Input} }

func (d *Divider) current() uint32 {
	v := d.Div.Get(d.Bus)
	if v == 0 {
		v = 1
	}
	return v
}

func (d *Divider) Read(out *Signal, active bool) error {
	if err := d.Input.Read(out, active); err != nil {
		return err
	}
	d.div[0] = d.current()
	out.FreqKHz /= d.div[0]
	return nil
}

// Config tries each divider from smallest to largest, so the highest
// output frequency the input can serve within range wins.
func (d *Divider) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(d.NodeName, phase)
	var first error
	for div := d.MinDiv; div <= d.MaxDiv; div++ {
		sub := *target
		sub.FreqKHz = scale(target.FreqKHz, div)
		sub.Range = Range{
			MinKHz: scale(target.Range.MinKHz, div),
			MaxKHz: scale(target.Range.MaxKHz, div) + (div - 1),
		}
		if sub.Range.MaxKHz < sub.Range.MinKHz {
			sub.Range.MaxKHz = math.MaxUint32
		}
		err := d.Input.Config(out, phase, &sub, hotSwitch)
		if err == nil {
			out.FreqKHz /= div
			d.div[phase] = div
			return nil
		}
		if !isConfigMiss(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

func scale(khz, n uint32) uint32 {
	p := uint64(khz) * uint64(n)
	if p > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(p)
}

func (d *Divider) Program(phase int) error {
	checkPhase(d.NodeName, phase)
	want := d.div[phase]
	if want == 0 {
		panic(fmt.Errorf("%s: program phase %d before config",
			d.NodeName, phase))
	}
	if err := d.Input.Program(phase); err != nil {
		return err
	}
	if d.current() != want {
		d.Div.Set(d.Bus, want)
		if got := d.current(); got != want {
			return fmt.Errorf("%s: divider %d != %d: %w",
				d.NodeName, got, want, ErrVerify)
		}
	}
	d.div[0] = want
	return nil
}

func (d *Divider) Cleanup(active bool) error { return d.Input.Cleanup(active) }

func (d *Divider) Print(w io.Writer, phaseCount int) {
	fmt.Fprintf(w, "divider %s: %v", d.NodeName, d.Div)
	for phase := 0; phase < phaseCount && phase < MaxPhases; phase++ {
		fmt.Fprintf(w, " [%d]=/%d", phase, d.div[phase])
	}
	fmt.Fprintln(w)
	printInput(w, d.Input, phaseCount)
}
