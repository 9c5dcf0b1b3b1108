// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package schematic holds a chip family's clock DAG along with the
// initialization that must run before any domain is read or switched.
package schematic

import (
	"errors"
	"fmt"
	"io"

	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/indent"
	"github.com/platinasystems/clk3/reg"
	"github.com/platinasystems/log"
)

var (
	ErrNotPresent = errors.New("domain not present")
	ErrNotReady   = errors.New("schematic not initialized")
)

// Resolver fills in node fields that depend on chip instance state, such
// as which of several floorswept units is alive.
type Resolver func(bus reg.Bus) error

type Dag struct {
	Name      string
	Bus       reg.Bus
	Domains   clk.Registry
	ReadOnly  []*clk.ReadOnly
	Resolvers []Resolver

	ready bool
}

// Init runs the resolvers; the first failure is returned and leaves the
// schematic unusable.
func (dag *Dag) Init() error {
	for _, resolve := range dag.Resolvers {
		if err := resolve(dag.Bus); err != nil {
			return fmt.Errorf("%s: %w", dag.Name, err)
		}
	}
	dag.ready = true
	return nil
}

func (dag *Dag) Ready() bool { return dag.ready }

// Prime reads every ReadOnly node and every non-volatile domain so their
// caches reflect what boot firmware left. It continues past failures and
// returns the first.
func (dag *Dag) Prime() error {
	if !dag.ready {
		return ErrNotReady
	}
	var first error
	record := func(err error) {
		if err == nil {
			return
		}
		if first == nil {
			first = err
		} else {
			log.Print("warn", dag.Name, ": prime: ", err)
		}
	}
	var s clk.Signal
	for _, ro := range dag.ReadOnly {
		record(ro.Read(&s, true))
	}
	dag.Domains.Each(func(d *clk.FreqDomain) {
		if !d.Volatile {
			record(d.Read())
		}
	})
	return first
}

// Domain returns the present domain or ErrNotPresent.
func (dag *Dag) Domain(id clk.DomainID) (*clk.FreqDomain, error) {
	if d := dag.Domains.Get(id); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("%s: %v: %w", dag.Name, id, ErrNotPresent)
}

// Read refreshes and returns a domain's output.
func (dag *Dag) Read(id clk.DomainID) (clk.Signal, error) {
	if !dag.ready {
		return clk.Signal{}, ErrNotReady
	}
	d, err := dag.Domain(id)
	if err != nil {
		return clk.Signal{}, err
	}
	err = d.Read()
	return d.Output, err
}

// Switch runs the domain's Config, Program and Cleanup for target.
func (dag *Dag) Switch(id clk.DomainID, target *clk.Target) error {
	if !dag.ready {
		return ErrNotReady
	}
	d, err := dag.Domain(id)
	if err != nil {
		return err
	}
	if !d.Output.Valid() {
		if err = d.Read(); err != nil {
			log.Print("warn", d.Name, ": read before switch: ", err)
		}
	}
	return d.Switch(target)
}

func (dag *Dag) Print(w io.Writer) {
	fmt.Fprintf(w, "%s: %v\n", dag.Name, dag.Domains.Mask())
	iw := indent.New(w, "    ")
	indent.Increase(iw)
	for _, ro := range dag.ReadOnly {
		ro.Print(iw, 1)
	}
	dag.Domains.Each(func(d *clk.FreqDomain) {
		d.Print(iw)
	})
}
