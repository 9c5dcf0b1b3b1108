// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"context"
	"flag"
	"strings"
)

// Usage prints
//
//	usage: PATH ARGS...
//
// with "help" dropped from PATH. Each string arg is printed as is; a
// *flag.FlagSet prints its defaults and a Selection its command names,
// one per line.
func Usage(ctx context.Context, args ...interface{}) {
	o := OutputOf(ctx)
	var p []string
	for i, s := range PathOf(ctx) {
		if i != 1 || s != "help" {
			p = append(p, s)
		}
	}
	o.Print("usage: ", strings.Join(p, " "))
	end := "\n"
	if len(args) > 0 {
		o.Print(" ")
	}
	for _, v := range args {
		switch t := v.(type) {
		case *flag.FlagSet:
			end = ""
			t.SetOutput(o)
			t.PrintDefaults()
		case Selection:
			end = ""
			for _, s := range t.Keys() {
				if len(s) > 0 {
					o.Println(" ", s)
				}
			}
		default:
			o.Print(v)
		}
	}
	o.Print(end)
}

// Command describes a leaf command for its help and completion.
type Command struct {
	// Usage is printed after the command path, e.g. "[-sim] [DOMAIN]...".
	Usage string
	// Text is printed on the lines following Usage.
	Text string
	// Flags and Parms are completed when the last arg has a dash prefix.
	Flags []string
	// Complete returns the candidates for any other last arg.
	Complete func() []string
}

// Preempted prints the command's help or completions and returns true
// if the context is preempted; otherwise it returns false for the
// command to run.
func (c Command) Preempted(ctx context.Context, args []string) bool {
	o := OutputOf(ctx)
	switch Preemption(ctx) {
	case "":
		return false
	case "complete":
		var l []string
		if strings.HasPrefix(LastArg(args), "-") {
			l = CompleteFlags(c.Flags, args)
		} else if c.Complete != nil {
			l = CompleteStrings(c.Complete(), args)
		}
		for _, s := range l {
			o.Println(s)
		}
	case "help":
		if len(c.Text) > 0 {
			Usage(ctx, c.Usage, "\n", c.Text)
		} else {
			Usage(ctx, c.Usage)
		}
	}
	return true
}
