// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPathDepth is the deepest mux chain any schematic may wire.
const MaxPathDepth = 8

// Slot is one mux selector along a path; Set is false while undecided.
type Slot struct {
	Sel uint8
	Set bool
}

// Path is the stack of mux selectors from a domain root toward a leaf,
// head first. The zero Path is fully indeterminate.
type Path [MaxPathDepth]Slot

// PathOf returns the path selecting each of sels in turn.
func PathOf(sels ...uint8) (p Path) {
	if len(sels) > MaxPathDepth {
		panic(fmt.Errorf("path %v exceeds depth %d", sels, MaxPathDepth))
	}
	for i, sel := range sels {
		p[i] = Slot{sel, true}
	}
	return
}

func (p Path) Head() (uint8, bool) { return p[0].Sel, p[0].Set }

// Tail drops the head slot.
func (p Path) Tail() (t Path) {
	copy(t[:], p[1:])
	return
}

// Prepend pushes sel as the new head. A path deeper than MaxPathDepth is
// a schematic wiring defect.
func (p Path) Prepend(sel uint8) (t Path) {
	if p[MaxPathDepth-1].Set {
		panic(fmt.Errorf("path %v: push %d exceeds depth %d",
			p, sel, MaxPathDepth))
	}
	t[0] = Slot{sel, true}
	copy(t[1:], p[:MaxPathDepth-1])
	return
}

// Depth is the count of leading decided slots.
func (p Path) Depth() int {
	for i, s := range p {
		if !s.Set {
			return i
		}
	}
	return MaxPathDepth
}

func (p Path) IsIndeterminate() bool {
	for _, s := range p {
		if s.Set {
			return false
		}
	}
	return true
}

// Matches reports whether every decided slot of p equals that of achieved.
func (p Path) Matches(achieved Path) bool {
	for i, s := range p {
		if s.Set && achieved[i] != s {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p begins with every decided slot of prefix.
func (p Path) HasPrefix(prefix Path) bool {
	for i, s := range prefix {
		if !s.Set {
			break
		}
		if p[i] != s {
			return false
		}
	}
	return true
}

// String formats the path as dot separated selectors up to the last
// decided slot, with "*" for undecided slots.
func (p Path) String() string {
	last := -1
	for i, s := range p {
		if s.Set {
			last = i
		}
	}
	if last < 0 {
		return "*"
	}
	sb := new(strings.Builder)
	for i, s := range p[:last+1] {
		if i > 0 {
			sb.WriteByte('.')
		}
		if s.Set {
			sb.WriteString(strconv.Itoa(int(s.Sel)))
		} else {
			sb.WriteByte('*')
		}
	}
	return sb.String()
}

// ParsePath is the inverse of String.
func ParsePath(s string) (p Path, err error) {
	if s == "" || s == "*" {
		return
	}
	fields := strings.Split(s, ".")
	if len(fields) > MaxPathDepth {
		return p, fmt.Errorf("%q: deeper than %d: %w", s, MaxPathDepth,
			ErrInvalidPath)
	}
	for i, f := range fields {
		if f == "*" {
			continue
		}
		sel, err := strconv.ParseUint(f, 0, 8)
		if err != nil {
			return p, fmt.Errorf("%q: %v: %w", s, err, ErrInvalidPath)
		}
		p[i] = Slot{uint8(sel), true}
	}
	return
}
