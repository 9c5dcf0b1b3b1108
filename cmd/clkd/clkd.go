// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package clkd serves the clock domains of a gx100 on the "clkd" socket
// and publishes each domain's frequency to redis.
package clkd

import (
	"context"
	"errors"
	"fmt"
	"net/rpc"
	"strconv"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/goes"
	"github.com/platinasystems/clk3/mclk"
	"github.com/platinasystems/clk3/pidfile"
	"github.com/platinasystems/clk3/reg"
	"github.com/platinasystems/clk3/regkey"
	"github.com/platinasystems/clk3/schematic/gx100"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
)

// Interval between re-reads of the volatile domains.
var Interval = 10 * time.Second

// Open returns the schematic on the simulator or on the register window
// at base, along with a func to release the window.
func Open(sim, trace bool, base string) (*gx100.Schematic, func() error, error) {
	var bus reg.Bus
	var sw clk.Switcher
	done := func() error { return nil }
	if sim {
		s := gx100.NewSim()
		bus = s
		sw = gx100.NewSequencer(s)
	} else {
		if len(base) == 0 {
			return nil, nil, errors.New("missing -base")
		}
		addr, err := strconv.ParseInt(base, 0, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("-base: %w", err)
		}
		mem, err := reg.OpenMem(addr, gx100.Bar0Size)
		if err != nil {
			return nil, nil, err
		}
		bus, done = mem, mem.Close
		sw = mclk.NewClient(mclk.Name)
	}
	if trace {
		bus = &reg.Trace{Bus: bus, Verbose: true}
	}
	s := gx100.New(bus, sw)
	if err := s.Init(); err != nil {
		done()
		return nil, nil, err
	}
	if err := s.Prime(); err != nil {
		log.Print("daemon", "err", s.Name, ": prime: ", err)
	}
	return s, done, nil
}

func Main(ctx context.Context, args ...string) error {
	if (goes.Command{
		Usage: "[-trace] [-sim | -base ADDR]",
		Text:  "Serve the clock domains on the " + Name + " socket.",
		Flags: []string{"-trace", "-sim", "-base"},
	}).Preempted(ctx, args) {
		return nil
	}
	flag, args := flags.New(args, "-sim", "-trace")
	parm, args := parms.New(args, "-base")
	if len(args) > 0 {
		return goes.ErrorfWith(ctx, "%v: unexpected", args)
	}
	if err := redis.IsReady(); err != nil {
		return err
	}
	s, done, err := Open(flag.ByName["-sim"], flag.ByName["-trace"],
		parm.ByName["-base"])
	if err != nil {
		return err
	}
	defer done()
	keys, err := regkey.Load()
	if err != nil {
		log.Print("daemon", "err", "regkey: ", err)
	}
	pub, err := publisher.New()
	if err != nil {
		return err
	}
	defer pub.Close()
	c := NewClk(&s.Dag, keys, pub)
	if err = rpc.RegisterName("Clk", c); err != nil {
		return err
	}
	srv, err := atsock.NewRpcServer(Name)
	if err != nil {
		return err
	}
	defer srv.Close()
	if rm, err := pidfile.New(Name); err != nil {
		log.Print("daemon", "err", "pidfile: ", err)
	} else {
		defer rm()
	}
	log.Print("daemon", "info", s.Name, ": ", s.Domains.Mask())
	c.PublishAll()
	t := time.NewTicker(Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			c.Update()
		}
	}
}
