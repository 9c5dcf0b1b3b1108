// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/platinasystems/clk3/reg"
)

// MuxInput is one selectable input of a Mux.
type MuxInput struct {
	Src FreqSrc
	// Source is what this input serves when a target's path is undecided;
	// SourceDefault lets the input itself decide.
	Source Source
	// Value is the selector field pattern choosing this input.
	Value uint32
}

// Mux selects one of its inputs through a register field.
//
// A glitchy mux may emit a runt pulse while its selector changes. When it
// has a Gate field, Program gates the output around the selector write and
// waits SwitchDelay before ungating; it also gates while reprogramming the
// input already selected. A glitchy mux without a Gate is only
// switched cold; Config refuses to hot switch it.
type Mux struct {
	NodeName    string
	Bus         reg.Bus
	Select      reg.Field
	In          []MuxInput
	Glitchy     bool
	Gate        reg.Field
	SwitchDelay time.Duration

	sel [MaxPhases]int
}

func NewMux(name string, bus reg.Bus, sel reg.Field, in ...MuxInput) *Mux {
	m := &Mux{
		NodeName: name,
		Bus:      bus,
		Select:   sel,
		In:       in,
	}
	for _, x := range in {
		mustInput(name, x.Src)
		if x.Value > sel.Max() {
			panic(fmt.Errorf("%s: value %#x exceeds %v", name, x.Value, sel))
		}
	}
	for i := range m.sel {
		m.sel[i] = -1
	}
	return m
}

func (m *Mux) Name() string { return m.NodeName }

func (m *Mux) Inputs() []FreqSrc {
	srcs := make([]FreqSrc, len(m.In))
	for i, x := range m.In {
		srcs[i] = x.Src
	}
	return srcs
}

// Selected returns the input chosen for phase, or -1 if undecided.
func (m *Mux) Selected(phase int) int {
	checkPhase(m.NodeName, phase)
	return m.sel[phase]
}

func (m *Mux) index(v uint32) int {
	for i, x := range m.In {
		if x.Value == v {
			return i
		}
	}
	return -1
}

func (m *Mux) Read(out *Signal, active bool) error {
	v := m.Select.Get(m.Bus)
	i := m.index(v)
	if i < 0 {
		*out = Signal{}
		return fmt.Errorf("%s: selector %#x matches no input: %w",
			m.NodeName, v, ErrInvalidPath)
	}
	m.sel[0] = i
	if err := m.In[i].Src.Read(out, active); err != nil {
		return err
	}
	out.Path = out.Path.Prepend(uint8(i))
	return nil
}

func (m *Mux) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(m.NodeName, phase)
	if sel, ok := target.Path.Head(); ok {
		if int(sel) >= len(m.In) {
			return fmt.Errorf("%s: selector %d not in [0, %d): %w",
				m.NodeName, sel, len(m.In), ErrInvalidPath)
		}
		return m.configInput(out, phase, int(sel), target, hotSwitch)
	}
	var candidates []int
	if target.Source != SourceDefault {
		for i, x := range m.In {
			if x.Source == target.Source || x.Source == SourceDefault {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return fmt.Errorf("%s: no %v input: %w",
				m.NodeName, target.Source, ErrInvalidSource)
		}
	} else {
		if m.sel[0] >= 0 {
			candidates = append(candidates, m.sel[0])
		}
		for i := range m.In {
			if i != m.sel[0] {
				candidates = append(candidates, i)
			}
		}
	}
	var first error
	for _, i := range candidates {
		err := m.configInput(out, phase, i, target, hotSwitch)
		if err == nil {
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

// isConfigMiss reports whether err only means the tried input can't serve
// the target so that another input may be tried.
func isConfigMiss(err error) bool {
	return errors.Is(err, ErrFreqNotSupported) ||
		errors.Is(err, ErrMismatchedTarget) ||
		errors.Is(err, ErrInvalidSource) ||
		errors.Is(err, ErrInvalidPath)
}

func (m *Mux) configInput(out *Signal, phase, i int, target *Target, hotSwitch bool) error {
	if m.Glitchy && hotSwitch && !m.Gate.Valid() &&
		m.sel[0] >= 0 && i != m.sel[0] {
		return fmt.Errorf("%s: can't hot switch glitchy input %d to %d: %w",
			m.NodeName, m.sel[0], i, ErrInvalidPath)
	}
	if err := m.In[i].Src.Config(out, phase, target.Tail(), hotSwitch); err != nil {
		return err
	}
	out.Path = out.Path.Prepend(uint8(i))
	m.sel[phase] = i
	return nil
}

func (m *Mux) Program(phase int) error {
	checkPhase(m.NodeName, phase)
	i := m.sel[phase]
	if i < 0 {
		panic(fmt.Errorf("%s: program phase %d before config",
			m.NodeName, phase))
	}
	want := m.In[i].Value
	gated := m.Glitchy && m.Gate.Valid()
	// A live input may stop or retune while reprogrammed.
	live := gated && m.Select.Get(m.Bus) == want
	if live {
		m.Gate.Set(m.Bus, 1)
	}
	err := m.In[i].Src.Program(phase)
	if live {
		m.Gate.Set(m.Bus, 0)
	}
	if err != nil {
		return err
	}
	if m.Select.Get(m.Bus) != want {
		if gated {
			m.Gate.Set(m.Bus, 1)
		}
		m.Select.Set(m.Bus, want)
		if m.SwitchDelay > 0 {
			time.Sleep(m.SwitchDelay)
		}
		if gated {
			m.Gate.Set(m.Bus, 0)
		}
		if got := m.Select.Get(m.Bus); got != want {
			return fmt.Errorf("%s: selector %#x != %#x: %w",
				m.NodeName, got, want, ErrVerify)
		}
	}
	m.sel[0] = i
	return nil
}

func (m *Mux) Cleanup(active bool) error {
	for i, x := range m.In {
		if err := x.Src.Cleanup(active && i == m.sel[0]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mux) Print(w io.Writer, phaseCount int) {
	fmt.Fprintf(w, "mux %s: %v", m.NodeName, m.Select)
	for phase := 0; phase < phaseCount && phase < MaxPhases; phase++ {
		fmt.Fprintf(w, " [%d]=%d", phase, m.sel[phase])
	}
	if m.Glitchy {
		fmt.Fprint(w, " glitchy")
	}
	fmt.Fprintln(w)
	for _, x := range m.In {
		printInput(w, x.Src, phaseCount)
	}
}
