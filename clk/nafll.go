// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"io"

	"github.com/platinasystems/clk3/reg"
)

// Nafll is an opaque adaptive frequency locked loop leaf. Its Freq field
// holds the output in StepKHz units and is resolved at schematic init
// since it depends on which physical instance survived floorsweeping.
type Nafll struct {
	NodeName       string
	Bus            reg.Bus
	Freq           reg.Field
	MinKHz, MaxKHz uint32
	StepKHz        uint32

	khz [MaxPhases]uint32
}

func (n *Nafll) Name() string { return n.NodeName }

func (n *Nafll) mustResolve() {
	if !n.Freq.Valid() {
		panic(fmt.Errorf("%s: instance unresolved", n.NodeName))
	}
}

func (n *Nafll) Read(out *Signal, active bool) error {
	n.mustResolve()
	n.khz[0] = n.Freq.Get(n.Bus) * n.StepKHz
	*out = Signal{FreqKHz: n.khz[0], Source: SourceNafll}
	return nil
}

func (n *Nafll) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(n.NodeName, phase)
	if n.StepKHz == 0 {
		panic(fmt.Errorf("%s: zero StepKHz", n.NodeName))
	}
	switch target.Source {
	case SourceDefault, SourceNafll:
	default:
		return fmt.Errorf("%s: can't serve %v: %w", n.NodeName,
			target.Source, ErrInvalidSource)
	}
	khz := target.FreqKHz / n.StepKHz * n.StepKHz
	if !target.Range.Contains(khz) {
		khz += n.StepKHz
	}
	if khz < n.MinKHz || khz > n.MaxKHz {
		return fmt.Errorf("%s: %d KHz outside of [%d, %d]: %w",
			n.NodeName, khz, n.MinKHz, n.MaxKHz, ErrFreqNotSupported)
	}
	*out = Signal{FreqKHz: khz, Source: SourceNafll}
	if err := target.Conforms(n.NodeName, out); err != nil {
		return err
	}
	n.khz[phase] = khz
	return nil
}

func (n *Nafll) Program(phase int) error {
	checkPhase(n.NodeName, phase)
	n.mustResolve()
	khz := n.khz[phase]
	if khz == 0 {
		panic(fmt.Errorf("%s: program phase %d before config",
			n.NodeName, phase))
	}
	n.Freq.Set(n.Bus, khz/n.StepKHz)
	if got := n.Freq.Get(n.Bus) * n.StepKHz; got != khz {
		return fmt.Errorf("%s: %d KHz != %d KHz: %w",
			n.NodeName, got, khz, ErrVerify)
	}
	n.khz[0] = khz
	return nil
}

func (n *Nafll) Cleanup(active bool) error { return nil }

func (n *Nafll) Print(w io.Writer, phaseCount int) {
	fmt.Fprintf(w, "nafll %s: %v", n.NodeName, n.Freq)
	for phase := 0; phase < phaseCount && phase < MaxPhases; phase++ {
		fmt.Fprintf(w, " [%d]=%d KHz", phase, n.khz[phase])
	}
	fmt.Fprintln(w)
}
