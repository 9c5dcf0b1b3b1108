// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"strings"
)

// DomainID is the bit position of a clock domain.
type DomainID uint8

const (
	Gpcclk DomainID = iota
	Xbarclk
	Sysclk
	Hubclk
	Mclk
	Hostclk
	Dispclk
	Utilsclk
	Pwrclk
	Nvdclk
	NumDomains
)

var domainNames = [...]string{
	Gpcclk:   "gpcclk",
	Xbarclk:  "xbarclk",
	Sysclk:   "sysclk",
	Hubclk:   "hubclk",
	Mclk:     "mclk",
	Hostclk:  "hostclk",
	Dispclk:  "dispclk",
	Utilsclk: "utilsclk",
	Pwrclk:   "pwrclk",
	Nvdclk:   "nvdclk",
}

func (id DomainID) String() string {
	if id < NumDomains {
		return domainNames[id]
	}
	return fmt.Sprintf("domain(%d)", uint8(id))
}

func (id DomainID) Bit() Mask { return 1 << id }

func ParseDomainID(s string) (DomainID, error) {
	for i, name := range domainNames {
		if strings.EqualFold(s, name) {
			return DomainID(i), nil
		}
	}
	return NumDomains, fmt.Errorf("%q: unknown domain", s)
}

// Mask is a set of domains by bit position.
type Mask uint32

func (m Mask) Has(id DomainID) bool { return m&id.Bit() != 0 }

func (m Mask) String() string {
	var names []string
	for id := DomainID(0); id < NumDomains; id++ {
		if m.Has(id) {
			names = append(names, id.String())
		}
	}
	return strings.Join(names, ",")
}

// Registry maps each domain bit position to its domain; nil entries are
// domains the chip doesn't have.
type Registry [NumDomains]*FreqDomain

func (r *Registry) Add(domains ...*FreqDomain) {
	for i, d := range domains {
		if d == nil {
			panic(fmt.Errorf("registry: nil domain at argument %d", i))
		}
		if d.ID >= NumDomains {
			panic(fmt.Errorf("%s: id %d out of range", d.Name, d.ID))
		}
		if r[d.ID] != nil {
			panic(fmt.Errorf("%v: already registered", d.ID))
		}
		r[d.ID] = d
	}
}

func (r *Registry) Get(id DomainID) *FreqDomain {
	if id >= NumDomains {
		return nil
	}
	return r[id]
}

func (r *Registry) Lookup(name string) *FreqDomain {
	id, err := ParseDomainID(name)
	if err != nil {
		return nil
	}
	return r.Get(id)
}

// Mask returns the set of present domains.
func (r *Registry) Mask() (m Mask) {
	for id, d := range r {
		if d != nil {
			m |= DomainID(id).Bit()
		}
	}
	return
}

// Each calls f for every present domain in bit order.
func (r *Registry) Each(f func(*FreqDomain)) {
	for _, d := range r {
		if d != nil {
			f(d)
		}
	}
}
