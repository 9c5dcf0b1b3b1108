// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// DomainDepth is the deepest chain of muxes from a domain root to a leaf.
type DomainDepth struct {
	ID       DomainID
	MaxDepth int
	Nodes    int
}

// SharedNode is a node that more than one domain may write.
type SharedNode struct {
	Name    string
	Domains Mask
}

// Report is the result of Check.
type Report struct {
	Depths []DomainDepth
	Shared []SharedNode
	Cycles []string
}

type checker struct {
	writers map[FreqSrc]Mask
	names   map[FreqSrc]string
	onStack map[FreqSrc]bool
	cycles  []string
}

// Check walks every domain from root to leaves. A node is writable by a
// domain unless it's an Xtal or ReadOnly, or is reached through a ReadOnly
// or Companion. Writable nodes reachable from more than one domain and cyclic
// wiring are defects.
func Check(r *Registry) *Report {
	c := &checker{
		writers: make(map[FreqSrc]Mask),
		names:   make(map[FreqSrc]string),
		onStack: make(map[FreqSrc]bool),
	}
	rpt := new(Report)
	r.Each(func(d *FreqDomain) {
		depth, nodes := c.walk(d.Root, d.ID, true, []string{d.Name})
		rpt.Depths = append(rpt.Depths, DomainDepth{
			ID:       d.ID,
			MaxDepth: depth,
			Nodes:    nodes,
		})
	})
	for src, m := range c.writers {
		if m&(m-1) != 0 {
			rpt.Shared = append(rpt.Shared, SharedNode{
				Name:    c.names[src],
				Domains: m,
			})
		}
	}
	sort.Slice(rpt.Shared, func(i, j int) bool {
		return rpt.Shared[i].Name < rpt.Shared[j].Name
	})
	rpt.Cycles = c.cycles
	return rpt
}

func (c *checker) walk(src FreqSrc, id DomainID, writable bool, trail []string) (depth, nodes int) {
	if c.onStack[src] {
		c.cycles = append(c.cycles,
			strings.Join(append(trail, src.Name()), " -> "))
		return 0, 0
	}
	switch src.(type) {
	case *Xtal, *ReadOnly:
		writable = false
	}
	if writable {
		c.writers[src] |= id.Bit()
		c.names[src] = src.Name()
	}
	if _, ok := src.(*Companion); ok {
		writable = false
	}
	c.onStack[src] = true
	defer delete(c.onStack, src)
	nodes = 1
	for _, in := range InputsOf(src) {
		d, n := c.walk(in, id, writable, append(trail, src.Name()))
		nodes += n
		if d > depth {
			depth = d
		}
	}
	if _, ok := src.(*Mux); ok {
		depth++
	}
	return
}

// Err summarizes the report's defects, if any.
func (rpt *Report) Err() error {
	var msgs []string
	for _, d := range rpt.Depths {
		if d.MaxDepth > MaxPathDepth {
			msgs = append(msgs, fmt.Sprintf("%v: mux depth %d exceeds %d",
				d.ID, d.MaxDepth, MaxPathDepth))
		}
	}
	for _, s := range rpt.Shared {
		msgs = append(msgs, fmt.Sprintf("%s: writable from %v",
			s.Name, s.Domains))
	}
	for _, s := range rpt.Cycles {
		msgs = append(msgs, "cycle: "+s)
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

func (rpt *Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	printf := func(format string, args ...interface{}) error {
		n, err := fmt.Fprintf(w, format, args...)
		total += int64(n)
		return err
	}
	for _, d := range rpt.Depths {
		if err := printf("%-10v depth %d nodes %d\n",
			d.ID, d.MaxDepth, d.Nodes); err != nil {
			return total, err
		}
	}
	for _, s := range rpt.Shared {
		if err := printf("shared %s: %v\n", s.Name, s.Domains); err != nil {
			return total, err
		}
	}
	for _, s := range rpt.Cycles {
		if err := printf("cycle %s\n", s); err != nil {
			return total, err
		}
	}
	return total, nil
}
