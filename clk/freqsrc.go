// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package clk models a chip's clock distribution network as a DAG of
// frequency sources and drives the Read, Config, Program and Cleanup walks
// that switch a clock domain to a new frequency.
package clk

import (
	"fmt"
	"io"

	"github.com/platinasystems/clk3/indent"
)

// MaxPhases bounds every node's per-phase state. Phase 0 is the current
// hardware state; phase MaxPhases-1 is the target.
const MaxPhases = 2

// FreqSrc is a node of the schematic DAG.
//
// Read fills out with the signal currently at the node's output; active
// is true when the node is on its domain's selected path.
//
// Config computes, without touching hardware, how the node and its inputs
// would produce target at the given phase, and fills out with the signal
// that would result.
//
// Program applies the given phase computed by the most recent Config,
// inputs first.
//
// Cleanup gates whatever is no longer on the active path.
type FreqSrc interface {
	Name() string
	Read(out *Signal, active bool) error
	Config(out *Signal, phase int, target *Target, hotSwitch bool) error
	Program(phase int) error
	Cleanup(active bool) error
	Print(w io.Writer, phaseCount int)
}

// Inputs is implemented by nodes that reference other nodes.
type Inputs interface {
	Inputs() []FreqSrc
}

// InputsOf returns the nodes referenced by src, if any.
func InputsOf(src FreqSrc) []FreqSrc {
	if in, ok := src.(Inputs); ok {
		return in.Inputs()
	}
	return nil
}

func checkPhase(name string, phase int) {
	if phase < 0 || phase >= MaxPhases {
		panic(fmt.Errorf("%s: phase %d out of range [0, %d)",
			name, phase, MaxPhases))
	}
}

func mustInput(name string, src FreqSrc) FreqSrc {
	if src == nil {
		panic(fmt.Errorf("%s: nil input", name))
	}
	return src
}

func printInput(w io.Writer, src FreqSrc, phaseCount int) {
	indent.Increase(w)
	src.Print(w, phaseCount)
	indent.Decrease(w)
}

// Xtal is a fixed frequency leaf.
type Xtal struct {
	NodeName string
	FreqKHz  uint32
}

func NewXtal(name string, khz uint32) *Xtal {
	return &Xtal{NodeName: name, FreqKHz: khz}
}

func (x *Xtal) Name() string { return x.NodeName }

func (x *Xtal) signal() Signal {
	return Signal{FreqKHz: x.FreqKHz, Source: SourceXtal}
}

func (x *Xtal) Read(out *Signal, active bool) error {
	*out = x.signal()
	return nil
}

func (x *Xtal) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(x.NodeName, phase)
	*out = x.signal()
	return target.Conforms(x.NodeName, out)
}

func (x *Xtal) Program(phase int) error {
	checkPhase(x.NodeName, phase)
	return nil
}

func (x *Xtal) Cleanup(active bool) error { return nil }

func (x *Xtal) Print(w io.Writer, phaseCount int) {
	fmt.Fprintf(w, "xtal %s: %d KHz\n", x.NodeName, x.FreqKHz)
}

// Wire passes its input through unchanged.
type Wire struct {
	NodeName string
	Input    FreqSrc
}

func NewWire(name string, input FreqSrc) *Wire {
	return &Wire{NodeName: name, Input: mustInput(name, input)}
}

func (w *Wire) Name() string      { return w.NodeName }
func (w *Wire) Inputs() []FreqSrc { return []FreqSrc{w.Input} }

func (w *Wire) Read(out *Signal, active bool) error {
	return w.Input.Read(out, active)
}

func (w *Wire) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(w.NodeName, phase)
	return w.Input.Config(out, phase, target, hotSwitch)
}

func (w *Wire) Program(phase int) error {
	checkPhase(w.NodeName, phase)
	return w.Input.Program(phase)
}

func (w *Wire) Cleanup(active bool) error { return w.Input.Cleanup(active) }

func (w *Wire) Print(wr io.Writer, phaseCount int) {
	fmt.Fprintf(wr, "wire %s\n", w.NodeName)
	printInput(wr, w.Input, phaseCount)
}
