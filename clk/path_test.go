// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"errors"
	"testing"
)

func TestPath(t *testing.T) {
	p := PathOf(1, 0)
	if s := p.String(); s != "1.0" {
		t.Fatal(s)
	}
	if sel, ok := p.Head(); !ok || sel != 1 {
		t.Fatal(sel, ok)
	}
	if tail := p.Tail(); tail != PathOf(0) {
		t.Fatal(tail)
	}
	if got := p.Tail().Prepend(1); got != p {
		t.Fatal(got)
	}
	if d := p.Depth(); d != 2 {
		t.Fatal(d)
	}
	if _, ok := (Path{}).Head(); ok {
		t.Fatal("empty path has a head")
	}
	t.Run("matches", func(t *testing.T) {
		wild := PathOf(1, 0, 2)
		wild[1] = Slot{}
		for _, x := range []struct {
			req, achieved Path
			want          bool
		}{
			{Path{}, PathOf(1, 2), true},
			{PathOf(1), PathOf(1, 2), true},
			{PathOf(1, 2), PathOf(1, 2), true},
			{PathOf(0), PathOf(1, 2), false},
			{PathOf(1, 2, 3), PathOf(1, 2), false},
			{wild, PathOf(1, 7, 2), true},
			{wild, PathOf(1, 7, 3), false},
		} {
			if got := x.req.Matches(x.achieved); got != x.want {
				t.Errorf("%v matches %v: %v", x.req, x.achieved, got)
			}
		}
	})
	t.Run("parse", func(t *testing.T) {
		for _, s := range []string{"*", "1", "1.0", "1.*.2", "0.1.2.3.4.5.6.7"} {
			p, err := ParsePath(s)
			if err != nil {
				t.Error(err)
			} else if got := p.String(); got != s {
				t.Errorf("%q != %q", got, s)
			}
		}
		for _, s := range []string{"x", "1.256", "0.1.2.3.4.5.6.7.8"} {
			if _, err := ParsePath(s); err == nil {
				t.Errorf("%q: parsed", s)
			}
		}
		if _, err := ParsePath("0.1.2.3.4.5.6.7.8"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("%v isn't %v", err, ErrInvalidPath)
		}
	})
	t.Run("overflow", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		PathOf(0, 1, 2, 3, 4, 5, 6, 7).Prepend(0)
	})
}
