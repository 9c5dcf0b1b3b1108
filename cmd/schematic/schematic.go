// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package schematic prints the wiring check of the gx100 clock tree.
package schematic

import (
	"context"

	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/goes"
	"github.com/platinasystems/clk3/schematic/gx100"
	"github.com/platinasystems/flags"
)

func Main(ctx context.Context, args ...string) error {
	if (goes.Command{
		Usage: "[-tree]",
		Text: "Print each domain's mux depth along with any shared or cyclic nodes.\n" +
			"With -tree, also print the simulated tree.",
		Flags: []string{"-tree"},
	}).Preempted(ctx, args) {
		return nil
	}
	flag, args := flags.New(args, "-tree")
	if len(args) > 0 {
		return goes.ErrorfWith(ctx, "%v: unexpected", args)
	}
	o := goes.OutputOf(ctx)
	sim := gx100.NewSim()
	s := gx100.New(sim, gx100.NewSequencer(sim))
	rpt := clk.Check(&s.Domains)
	rpt.WriteTo(o)
	if flag.ByName["-tree"] {
		if err := s.Init(); err != nil {
			return goes.ErrorfWith(ctx, "%w", err)
		}
		if err := s.Prime(); err != nil {
			return goes.ErrorfWith(ctx, "%w", err)
		}
		s.Print(o)
	}
	if err := rpt.Err(); err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	return nil
}
