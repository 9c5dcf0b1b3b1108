// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package reg

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestField(t *testing.T) {
	m := NewMap()
	m.Poke(0x100, 0xffff0000)
	f := Field{Addr: 0x100, Shift: 8, Width: 4}
	if got := f.Mask(); got != 0xf00 {
		t.Fatalf("mask %#x", got)
	}
	if got := f.Get(m); got != 0 {
		t.Fatalf("get %#x", got)
	}
	if !f.Set(m, 0xa) {
		t.Fatal("set didn't change register")
	}
	if got := m.Read32(0x100); got != 0xffff0a00 {
		t.Fatalf("register %#x", got)
	}
	if f.Set(m, 0xa) {
		t.Error("unchanged set wrote register")
	}
	if n := m.Writes(); n != 1 {
		t.Errorf("%d writes", n)
	}
	for _, x := range []struct {
		f    Field
		want string
	}{
		{f, "0x000100[11:8]"},
		{Field{Addr: 0x137000, Shift: 17, Width: 1}, "0x137000[17:17]"},
	} {
		if got := x.f.String(); got != x.want {
			t.Errorf("%q != %q", got, x.want)
		}
	}
	full := Field{Addr: 0x104, Width: 32}
	if full.Max() != 0xffffffff {
		t.Errorf("full width max %#x", full.Max())
	}
}

func TestFieldOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Field{Addr: 0, Width: 2}.Set(NewMap(), 4)
}

func TestMapHook(t *testing.T) {
	m := NewMap()
	m.OnWrite(0x10, func(m *Map, addr, v uint32) {
		if v&1 != 0 {
			m.Poke(0x14, 1)
		}
	})
	m.Write32(0x10, 2)
	if m.Read32(0x14) != 0 {
		t.Fatal("hook fired early")
	}
	m.Write32(0x10, 3)
	if m.Read32(0x14) != 1 {
		t.Fatal("hook didn't fire")
	}
	if n := m.Writes(); n != 2 {
		t.Errorf("%d writes", n)
	}
	m.ResetWrites()
	if n := m.Writes(); n != 0 {
		t.Errorf("%d writes after reset", n)
	}
	buf := new(strings.Builder)
	m.WriteTo(buf)
	if got, want := buf.String(), "0x000010: 0x000003\n0x000014: 0x000001\n"; got != want {
		t.Errorf("%q != %q", got, want)
	}
}

func TestPoll(t *testing.T) {
	m := NewMap()
	t.Run("ready", func(t *testing.T) {
		m.Poke(0x20, 1<<31)
		if _, err := Poll(m, 0x20, 1<<31, 1<<31, time.Millisecond); err != nil {
			t.Error(err)
		}
	})
	t.Run("late", func(t *testing.T) {
		m.Poke(0x24, 0)
		go func() {
			time.Sleep(time.Millisecond)
			m.Poke(0x24, 1)
		}()
		if _, err := Poll(m, 0x24, 1, 1, time.Second); err != nil {
			t.Error(err)
		}
	})
	t.Run("timeout", func(t *testing.T) {
		_, err := Poll(m, 0x28, 1, 1, time.Millisecond)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("%v isn't a timeout", err)
		}
	})
}

func TestTrace(t *testing.T) {
	m := NewMap()
	tr := &Trace{Bus: m}
	tr.Write32(4, 5)
	if tr.Read32(4) != 5 {
		t.Error("trace didn't pass through")
	}
	if tr.Writes() != 1 {
		t.Errorf("%d writes", tr.Writes())
	}
}

func ExampleMap_WriteTo() {
	m := NewMap()
	f := Field{Addr: 0x1000, Shift: 4, Width: 4}
	f.Set(m, 3)
	m.WriteTo(os.Stdout)
	// Output:
	// 0x001000: 0x000030
}
