// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package clk shows and switches clock domains through clkd or, with
// -sim, an in-process gx100 simulator.
package clk

import (
	"context"
	"strconv"

	clock "github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/cmd/clkd"
	"github.com/platinasystems/clk3/goes"
	"github.com/platinasystems/clk3/regkey"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
)

var Selection = goes.Selection{
	"print":  Print,
	"regkey": Regkey,
	"set":    Set,
	"show":   Show,
}

func Main(ctx context.Context, args ...string) error {
	return Selection.Select(ctx, args...)
}

// Local returns the in-process service of a simulated gx100.
var Local = func() (clkd.Service, func() error, error) {
	s, done, err := clkd.Open(true, false, "")
	if err != nil {
		return nil, nil, err
	}
	return clkd.NewClk(&s.Dag, regkey.Keys{}, nil), done, nil
}

// Remote returns the service of the running clkd.
var Remote = func() (clkd.Service, func() error, error) {
	return clkd.NewClient(), func() error { return nil }, nil
}

func service(sim bool) (clkd.Service, func() error, error) {
	if sim {
		return Local()
	}
	return Remote()
}

func domainNames() []string {
	names := make([]string, 0, clock.NumDomains)
	for id := clock.DomainID(0); id < clock.NumDomains; id++ {
		names = append(names, id.String())
	}
	return names
}

func Show(ctx context.Context, args ...string) error {
	if (goes.Command{
		Usage:    "[-sim] [DOMAIN]...",
		Text:     "Print the frequency, source and path of each DOMAIN.",
		Flags:    []string{"-sim"},
		Complete: domainNames,
	}).Preempted(ctx, args) {
		return nil
	}
	flag, args := flags.New(args, "-sim")
	svc, done, err := service(flag.ByName["-sim"])
	if err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	defer done()
	var r clkd.ReadReply
	if err = svc.Read(clkd.ReadArgs{Domains: args}, &r); err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	clkd.WriteStates(goes.OutputOf(ctx), r.Domains)
	return nil
}

func parseKHz(s string) (uint32, error) {
	u, err := strconv.ParseUint(s, 0, 32)
	return uint32(u), err
}

func Set(ctx context.Context, args ...string) error {
	if (goes.Command{
		Usage:    "[-sim] [-force] DOMAIN KHZ [-source SOURCE] [-path PATH] [-tolerance KHZ]",
		Text:     "Switch DOMAIN to KHZ, within tolerance if given.",
		Flags:    []string{"-sim", "-force", "-source", "-path", "-tolerance"},
		Complete: domainNames,
	}).Preempted(ctx, args) {
		return nil
	}
	flag, args := flags.New(args, "-sim", "-force")
	parm, args := parms.New(args, "-source", "-path", "-tolerance")
	if len(args) != 2 {
		return goes.ErrorfWith(ctx, "expected DOMAIN KHZ")
	}
	sa := clkd.SwitchArgs{
		Domain: args[0],
		Source: parm.ByName["-source"],
		Path:   parm.ByName["-path"],
		Force:  flag.ByName["-force"],
	}
	var err error
	if sa.FreqKHz, err = parseKHz(args[1]); err != nil {
		return goes.ErrorfWith(ctx, "%s: %w", args[1], err)
	}
	if s := parm.ByName["-tolerance"]; len(s) > 0 {
		if sa.ToleranceKHz, err = parseKHz(s); err != nil {
			return goes.ErrorfWith(ctx, "-tolerance: %w", err)
		}
	}
	svc, done, err := service(flag.ByName["-sim"])
	if err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	defer done()
	var r clkd.SwitchReply
	if err = svc.Switch(sa, &r); err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	o := goes.OutputOf(ctx)
	if r.PhaseCount == 1 {
		o.Println(r.State, "(within margin)")
	} else {
		o.Println(r.State)
	}
	return nil
}

func Print(ctx context.Context, args ...string) error {
	if (goes.Command{
		Usage: "[-sim]",
		Text:  "Print the clock tree with each node's state.",
		Flags: []string{"-sim"},
	}).Preempted(ctx, args) {
		return nil
	}
	flag, args := flags.New(args, "-sim")
	if len(args) > 0 {
		return goes.ErrorfWith(ctx, "%v: unexpected", args)
	}
	svc, done, err := service(flag.ByName["-sim"])
	if err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	defer done()
	var s string
	if err = svc.Print(0, &s); err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	goes.OutputOf(ctx).Print(s)
	return nil
}

// SetRegkey stores a regkey; clkd loads them when started.
var SetRegkey = regkey.Set

func Regkey(ctx context.Context, args ...string) error {
	if (goes.Command{
		Usage:    "NAME VALUE",
		Text:     "Set redis hash field " + regkey.Prefix + "NAME to VALUE.",
		Complete: func() []string {
			return []string{"force", "disable", "margin."}
		},
	}).Preempted(ctx, args) {
		return nil
	}
	if len(args) != 2 {
		return goes.ErrorfWith(ctx, "expected NAME VALUE")
	}
	if _, err := regkey.Parse(map[string]string{
		regkey.Prefix + args[0]: args[1],
	}); err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	if err := SetRegkey(args[0], args[1]); err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	return nil
}
