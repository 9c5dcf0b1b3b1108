// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"context"
	"fmt"
	"strings"
)

type contextKey int

const (
	pathKey contextKey = iota
	usageKey
)

type path struct {
	context.Context
	name string
}

func (p path) Value(k interface{}) interface{} {
	if k == pathKey {
		return p
	}
	return p.Context.Value(k)
}

// WithPath appends a command name to the context's path.
func WithPath(ctx context.Context, name string) context.Context {
	return path{ctx, name}
}

// PathOf returns the command names in the order they were appended.
func PathOf(ctx context.Context) []string {
	var l []string
	for v := ctx.Value(pathKey); v != nil; v = ctx.Value(pathKey) {
		p := v.(path)
		l = append(l, p.name)
		ctx = p.Context
	}
	for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
		l[i], l[j] = l[j], l[i]
	}
	return l
}

// ErrorfWith prefaces the formatted error with the context path,
// e.g. "goes-clk clk set: expected DOMAIN KHZ".
func ErrorfWith(ctx context.Context, format string, args ...interface{}) error {
	return fmt.Errorf(strings.Join(PathOf(ctx), " ")+": "+format, args...)
}

var preemptive = map[string]bool{
	"complete": true,
	"help":     true,
}

// Preemption returns "complete" or "help" if either leads the path after
// the program name, otherwise "".
func Preemption(ctx context.Context) string {
	if p := PathOf(ctx); len(p) > 1 && preemptive[p[1]] {
		return p[1]
	}
	return ""
}

// Preempt moves leading "complete" and "help" args to the context path.
func Preempt(ctx context.Context, args []string) (context.Context, []string) {
	for len(args) > 0 && preemptive[args[0]] {
		ctx = WithPath(ctx, args[0])
		args = args[1:]
	}
	return ctx, args
}

func UsageOf(ctx context.Context) func() {
	if f, ok := ctx.Value(usageKey).(func()); ok {
		return f
	}
	return nil
}

func WithUsage(ctx context.Context, f func()) context.Context {
	return context.WithValue(ctx, usageKey, f)
}
