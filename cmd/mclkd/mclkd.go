// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package mclkd serves the memory clock sequencer on the "mclkd" socket.
package mclkd

import (
	"context"
	"errors"
	"strconv"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/clk3/goes"
	"github.com/platinasystems/clk3/mclk"
	"github.com/platinasystems/clk3/pidfile"
	"github.com/platinasystems/clk3/reg"
	"github.com/platinasystems/clk3/schematic/gx100"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
)

// Open returns the sequencer's bus and a func to release it.
func Open(sim bool, base string) (reg.Bus, func() error, error) {
	if sim {
		return gx100.NewSim(), func() error { return nil }, nil
	}
	if len(base) == 0 {
		return nil, nil, errors.New("missing -base")
	}
	addr, err := strconv.ParseInt(base, 0, 64)
	if err != nil {
		return nil, nil, err
	}
	mem, err := reg.OpenMem(addr, gx100.Bar0Size)
	if err != nil {
		return nil, nil, err
	}
	return mem, mem.Close, nil
}

func Main(ctx context.Context, args ...string) error {
	if (goes.Command{
		Usage: "[-sim | -base ADDR]",
		Text:  "Serve memory clock switches on the " + mclk.Name + " socket.",
		Flags: []string{"-sim", "-base"},
	}).Preempted(ctx, args) {
		return nil
	}
	flag, args := flags.New(args, "-sim")
	parm, args := parms.New(args, "-base")
	if len(args) > 0 {
		return goes.ErrorfWith(ctx, "%v: unexpected", args)
	}
	bus, done, err := Open(flag.ByName["-sim"], parm.ByName["-base"])
	if err != nil {
		return goes.ErrorfWith(ctx, "%w", err)
	}
	defer done()
	if err = mclk.NewServer(gx100.NewSequencer(bus)).Register(); err != nil {
		return err
	}
	srv, err := atsock.NewRpcServer(mclk.Name)
	if err != nil {
		return err
	}
	defer srv.Close()
	if rm, err := pidfile.New(mclk.Name); err != nil {
		log.Print("daemon", "err", "pidfile: ", err)
	} else {
		defer rm()
	}
	log.Print("daemon", "info", mclk.Name, ": ready")
	<-ctx.Done()
	return nil
}
