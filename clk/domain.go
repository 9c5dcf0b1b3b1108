// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"io"

	"github.com/platinasystems/clk3/indent"
)

// FreqDomain drives the phase protocol for one named clock domain.
//
// PhaseCount is 0 until a successful Config, 1 when Config found nothing
// to switch, and 2 when Program has one transition to apply.
type FreqDomain struct {
	Name string
	ID   DomainID
	Root FreqSrc

	MarginKHz     uint32
	MaxPhaseCount int
	PhaseCount    int

	// Output is the last known signal; FreqKHz 0 forces a re-read.
	Output Signal

	// Force switches even when Output is already within margin.
	Force bool
	// Volatile domains aren't primed since their frequency changes
	// outside of this walk.
	Volatile bool
	// Reread invalidates and reads Output after Program, for domains
	// switched by a companion controller.
	Reread bool

	// Requests below AltPathMaxKHz route through AltPath, others through
	// PllPath. Zero disables routing.
	AltPathMaxKHz uint32
	PllPath       Path
	AltPath       Path

	next Signal
}

func NewDomain(id DomainID, root FreqSrc, marginKHz uint32) *FreqDomain {
	return &FreqDomain{
		Name:          id.String(),
		ID:            id,
		Root:          mustInput(id.String(), root),
		MarginKHz:     marginKHz,
		MaxPhaseCount: MaxPhases,
	}
}

// Read refreshes Output from hardware.
func (d *FreqDomain) Read() error {
	var s Signal
	if err := d.Root.Read(&s, true); err != nil {
		d.Output = Signal{}
		return err
	}
	if d.AltPathMaxKHz != 0 && s.Valid() && !d.IsPllPath(s.Path) {
		s.Source = SourceAlt
	}
	d.Output = s
	return nil
}

// IsPllPath reports whether path begins with the domain's PLL route.
func (d *FreqDomain) IsPllPath(path Path) bool { return path.HasPrefix(d.PllPath) }

// PathSourceAgrees reports whether path routes source: the PLL route for
// SourcePll, any other for SourceAlt.
func (d *FreqDomain) PathSourceAgrees(path Path, source Source) bool {
	return d.IsPllPath(path) == (source == SourcePll)
}

func (d *FreqDomain) route(target *Target) (*Target, error) {
	if d.AltPathMaxKHz == 0 {
		return target, nil
	}
	t := *target
	below := t.FreqKHz < d.AltPathMaxKHz
	src := t.Source
	switch src {
	case SourceDefault:
		switch {
		case !t.Path.IsIndeterminate() && d.IsPllPath(t.Path):
			src = SourcePll
		case !t.Path.IsIndeterminate():
			src = SourceAlt
		case below:
			src = SourceAlt
		default:
			src = SourcePll
		}
	case SourceAlt, SourcePll:
	default:
		return nil, fmt.Errorf("%s: can't route %v: %w",
			d.Name, src, ErrInvalidSource)
	}
	if src == SourcePll && below {
		return nil, fmt.Errorf("%s: pll source below %d KHz: %w",
			d.Name, d.AltPathMaxKHz, ErrInvalidSource)
	}
	if src == SourceAlt && !below {
		return nil, fmt.Errorf("%s: alt source at or above %d KHz: %w",
			d.Name, d.AltPathMaxKHz, ErrInvalidSource)
	}
	if t.Path.IsIndeterminate() {
		if src == SourcePll {
			t.Path = d.PllPath
		} else {
			t.Path = d.AltPath
		}
	} else if !d.PathSourceAgrees(t.Path, src) {
		return nil, fmt.Errorf("%s: path %v doesn't route %v: %w",
			d.Name, t.Path, src, ErrInvalidPath)
	}
	if src == SourceAlt {
		t.Source = SourceDefault
	} else {
		t.Source = SourcePll
	}
	return &t, nil
}

func within(a, b, margin uint32) bool {
	if a > b {
		return a-b <= margin
	}
	return b-a <= margin
}

// Config decides whether target needs a switch and, if so, configures
// the target phase from the root down.
func (d *FreqDomain) Config(target *Target) error {
	d.PhaseCount = 0
	if target.FreqKHz == 0 {
		return fmt.Errorf("%s: zero frequency: %w", d.Name,
			ErrFreqNotSupported)
	}
	t, err := d.route(target)
	if err != nil {
		return err
	}
	if !d.Force && d.Output.Valid() &&
		within(d.Output.FreqKHz, t.FreqKHz, d.MarginKHz) &&
		t.Path.Matches(d.Output.Path) &&
		(t.Source == SourceDefault || t.Source == d.Output.Source) {
		d.PhaseCount = 1
		d.next = d.Output
		return nil
	}
	var out Signal
	if err = d.Root.Config(&out, 1, t, true); err != nil {
		return err
	}
	if d.AltPathMaxKHz != 0 && !d.IsPllPath(out.Path) {
		out.Source = SourceAlt
	}
	d.next = out
	d.PhaseCount = 2
	return nil
}

// Configured returns the signal the most recent Config computed.
func (d *FreqDomain) Configured() Signal { return d.next }

// Program applies each phase after the current one in order. Calling it
// without a successful Config is a programming error.
func (d *FreqDomain) Program() error {
	if d.PhaseCount <= 0 || d.PhaseCount > d.MaxPhaseCount {
		panic(fmt.Errorf("%s: program with phase count %d of %d",
			d.Name, d.PhaseCount, d.MaxPhaseCount))
	}
	if d.PhaseCount == 1 {
		return nil
	}
	for phase := 1; phase < d.PhaseCount; phase++ {
		if err := d.Root.Program(phase); err != nil {
			d.Output = Signal{}
			return err
		}
	}
	if d.Reread {
		d.Output = Signal{}
		return d.Read()
	}
	d.Output = d.next
	return nil
}

func (d *FreqDomain) Cleanup() error { return d.Root.Cleanup(true) }

// Switch runs Config, Program and Cleanup for target.
func (d *FreqDomain) Switch(target *Target) error {
	if err := d.Config(target); err != nil {
		return err
	}
	if err := d.Program(); err != nil {
		return err
	}
	return d.Cleanup()
}

func (d *FreqDomain) Print(w io.Writer) {
	iw := indent.New(w, "\t")
	fmt.Fprintf(iw, "%s: %v phases %d\n", d.Name, d.Output, d.PhaseCount)
	n := d.PhaseCount
	if n == 0 {
		n = 1
	}
	indent.Increase(iw)
	d.Root.Print(iw, n)
	indent.Decrease(iw)
}
