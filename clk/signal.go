// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"math"
	"strings"
)

// Source is the physical origin of a signal.
type Source uint8

const (
	SourceDefault Source = iota
	SourceXtal
	SourcePll
	SourceBypass
	SourceAlt
	SourceNafll
	SourceCompanion
	nSources
)

var sourceNames = [...]string{
	SourceDefault:   "default",
	SourceXtal:      "xtal",
	SourcePll:       "pll",
	SourceBypass:    "bypass",
	SourceAlt:       "alt",
	SourceNafll:     "nafll",
	SourceCompanion: "companion",
}

func (src Source) String() string {
	if src < nSources {
		return sourceNames[src]
	}
	return fmt.Sprintf("source(%d)", uint8(src))
}

func ParseSource(s string) (Source, error) {
	for i, name := range sourceNames {
		if strings.EqualFold(s, name) {
			return Source(i), nil
		}
	}
	return SourceDefault, fmt.Errorf("%q: unknown source", s)
}

// Signal describes a clock at some node's output. FreqKHz == 0 means
// unknown.
type Signal struct {
	FreqKHz uint32
	Source  Source
	Path    Path
}

func (s Signal) Valid() bool { return s.FreqKHz != 0 }

func (s Signal) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return fmt.Sprintf("%d KHz %v path %v", s.FreqKHz, s.Source, s.Path)
}

// Range is an inclusive frequency window.
type Range struct {
	MinKHz, MaxKHz uint32
}

var AnyFrequency = Range{MinKHz: 1, MaxKHz: math.MaxUint32}

func (r Range) Contains(khz uint32) bool {
	return khz != 0 && khz >= r.MinKHz && khz <= r.MaxKHz
}

// Scale multiplies both ends, saturating.
func (r Range) Scale(n uint32) Range {
	mul := func(v uint32) uint32 {
		p := uint64(v) * uint64(n)
		if p > math.MaxUint32 {
			return math.MaxUint32
		}
		return uint32(p)
	}
	return Range{mul(r.MinKHz), mul(r.MaxKHz)}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d] KHz", r.MinKHz, r.MaxKHz)
}

// Target is a requested signal along with the acceptable frequency window.
type Target struct {
	Signal
	Range Range
}

// NewTarget returns a target that accepts only the exact frequency.
func NewTarget(khz uint32, src Source, path Path) *Target {
	return &Target{
		Signal: Signal{FreqKHz: khz, Source: src, Path: path},
		Range:  Range{khz, khz},
	}
}

// WithTolerance widens the range to [FreqKHz-below, FreqKHz+above].
func (t *Target) WithTolerance(below, above uint32) *Target {
	t.Range.MinKHz = 1
	if t.FreqKHz > below {
		t.Range.MinKHz = t.FreqKHz - below
	}
	t.Range.MaxKHz = math.MaxUint32
	if uint64(t.FreqKHz)+uint64(above) < math.MaxUint32 {
		t.Range.MaxKHz = t.FreqKHz + above
	}
	return t
}

// Tail returns a copy for the node one mux below.
func (t *Target) Tail() *Target {
	sub := *t
	sub.Path = t.Path.Tail()
	return &sub
}

// Conforms checks the achieved signal against the target: path, then
// source, then frequency range.
func (t *Target) Conforms(name string, s *Signal) error {
	if !t.Path.Matches(s.Path) {
		return fmt.Errorf("%s: path %v doesn't match %v: %w",
			name, s.Path, t.Path, ErrInvalidPath)
	}
	if t.Source != SourceDefault && t.Source != s.Source {
		return fmt.Errorf("%s: source %v isn't %v: %w",
			name, s.Source, t.Source, ErrMismatchedTarget)
	}
	if !t.Range.Contains(s.FreqKHz) {
		return fmt.Errorf("%s: %d KHz outside of %v: %w",
			name, s.FreqKHz, t.Range, ErrFreqNotSupported)
	}
	return nil
}

func (t *Target) String() string {
	return fmt.Sprintf("%d KHz %v path %v range %v",
		t.FreqKHz, t.Source, t.Path, t.Range)
}
