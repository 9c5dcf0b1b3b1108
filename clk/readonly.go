// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"errors"
	"fmt"
	"io"
)

// ReadOnly caches the first valid signal read from its input and never
// configures, programs or cleans up that input. It wraps sources that
// boot firmware programs once, and sources shared by several domains.
type ReadOnly struct {
	NodeName string
	Input    FreqSrc

	cache Signal
}

func NewReadOnly(name string, input FreqSrc) *ReadOnly {
	return &ReadOnly{NodeName: name, Input: mustInput(name, input)}
}

func (r *ReadOnly) Name() string      { return r.NodeName }
func (r *ReadOnly) Inputs() []FreqSrc { return []FreqSrc{r.Input} }

// Cached returns the cached signal; FreqKHz is zero until the first read.
func (r *ReadOnly) Cached() Signal { return r.cache }

// Invalidate forces the next Read or Config to read the input again; it's
// for callers that know the hardware changed out of band.
func (r *ReadOnly) Invalidate() { r.cache = Signal{} }

func (r *ReadOnly) Read(out *Signal, active bool) error {
	if !r.cache.Valid() {
		var s Signal
		if err := r.Input.Read(&s, true); err != nil {
			return err
		}
		r.cache = s
	}
	*out = r.cache
	return nil
}

func (r *ReadOnly) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(r.NodeName, phase)
	if err := r.Read(out, true); err != nil {
		return err
	}
	err := target.Conforms(r.NodeName, out)
	if errors.Is(err, ErrFreqNotSupported) {
		return fmt.Errorf("%w: %w", ErrMismatchedTarget, err)
	}
	return err
}

func (r *ReadOnly) Program(phase int) error {
	checkPhase(r.NodeName, phase)
	return nil
}

func (r *ReadOnly) Cleanup(active bool) error { return nil }

func (r *ReadOnly) Print(w io.Writer, phaseCount int) {
	fmt.Fprintf(w, "readonly %s: %v\n", r.NodeName, r.cache)
	printInput(w, r.Input, phaseCount)
}
