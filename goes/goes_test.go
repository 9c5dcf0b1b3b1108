// Copyright © 2015-2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSelect(t *testing.T) {
	w := new(strings.Builder)
	ctx := WithOutput(context.Background(), w)
	ctx = WithPath(ctx, "goes-clk")
	var got []string
	m := Selection{
		"clk": Selection{
			"set": func(ctx context.Context, args ...string) error {
				got = append(PathOf(ctx), args...)
				return nil
			},
			"show": func(ctx context.Context, args ...string) error {
				return ErrorfWith(ctx, "%s: unknown domain", args[0])
			},
		}.Select,
		"clkd": func(context.Context, ...string) error { return nil },
	}
	ut := func(t *testing.T, want string, args ...string) {
		t.Helper()
		w.Reset()
		ctx, args := Preempt(ctx, args)
		if err := m.Select(ctx, args...); err != nil {
			t.Error(err)
		} else if got := w.String(); got != want {
			t.Errorf("%q != %q", got, want)
		}
	}
	t.Run("dispatch", func(t *testing.T) {
		ut(t, "", "clk", "set", "sysclk", "810000")
		if s := strings.Join(got, " "); s != "goes-clk clk set sysclk 810000" {
			t.Error(s)
		}
	})
	t.Run("error", func(t *testing.T) {
		err := m.Select(ctx, "clk", "show", "bogus")
		if err == nil || err.Error() != "goes-clk clk show: bogus: unknown domain" {
			t.Error(err)
		}
		err = m.Select(ctx, "clkctl")
		if err == nil || err.Error() != "goes-clk: clkctl: not found" {
			t.Error(err)
		}
		err = m.Select(ctx, "clk")
		if err == nil || err.Error() != "goes-clk clk: incomplete" {
			t.Error(err)
		}
	})
	t.Run("complete", func(t *testing.T) {
		ut(t, "clk\nclkd\n", "complete", "cl")
		ut(t, "set\nshow\n", "complete", "clk", "s")
	})
	t.Run("help", func(t *testing.T) {
		ut(t, "usage: goes-clk clk [COMMAND [OPTION]...]...\n  set\n  show\n",
			"help", "clk")
	})
}

func TestCompleteFlags(t *testing.T) {
	names := []string{"-source", "-path", "-tolerance", "-force"}
	c := CompleteFlags(names, []string{"set", "-p"})
	if len(c) != 1 || c[0] != "-path" {
		t.Error(c)
	}
	if c = CompleteFlags(names, nil); len(c) != len(names) {
		t.Error(c)
	}
}

func TestCommand(t *testing.T) {
	c := Command{
		Usage:    "[-sim] [DOMAIN]...",
		Text:     "Print each DOMAIN.",
		Flags:    []string{"-sim"},
		Complete: func() []string {
			return []string{"gpcclk", "sysclk", "xbarclk"}
		},
	}
	for _, x := range []struct {
		args []string
		want string
		pre  bool
	}{
		{[]string{"show", "sysclk"}, "", false},
		{[]string{"help", "show"},
			"usage: goes-clk show [-sim] [DOMAIN]...\nPrint each DOMAIN.\n", true},
		{[]string{"complete", "show", "sys"}, "sysclk\n", true},
		{[]string{"complete", "show", "-"}, "-sim\n", true},
		{[]string{"complete", "show", ""}, "gpcclk\nsysclk\nxbarclk\n", true},
	} {
		w := new(strings.Builder)
		ctx := WithOutput(context.Background(), w)
		ctx = WithPath(ctx, "goes-clk")
		ctx, args := Preempt(ctx, x.args)
		ctx = WithPath(ctx, args[0])
		if pre := c.Preempted(ctx, args[1:]); pre != x.pre {
			t.Errorf("%v: preempted %v", x.args, pre)
		}
		if got := w.String(); got != x.want {
			t.Errorf("%v: %q != %q", x.args, got, x.want)
		}
	}
	ctx := WithPath(WithPath(context.Background(), "goes-clk"), "set")
	if err := ErrorfWith(ctx, "%s: %w", "fast", errTest); err.Error() != "goes-clk set: fast: test" || !errors.Is(err, errTest) {
		t.Error(err)
	}
}

var errTest = errors.New("test")
