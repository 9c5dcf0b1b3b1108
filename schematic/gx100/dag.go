// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package gx100 wires the clock schematic of the GX100 family.
package gx100

import (
	"fmt"
	"time"

	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/reg"
	"github.com/platinasystems/clk3/schematic"
)

const (
	// SysAltMaxKHz and DispAltMaxKHz are the alt path thresholds.
	SysAltMaxKHz  = 800000
	DispAltMaxKHz = 600000

	LockTimeout = 100 * time.Microsecond
	SettleTime  = 5 * time.Microsecond
	SwitchDelay = time.Microsecond
)

var (
	SpllLimits = clk.PllLimits{
		MinM: 1, MaxM: 1,
		MinN: 40, MaxN: 120,
		MinPl: 1, MaxPl: 1,
		MinVcoKHz: 1000000, MaxVcoKHz: 3400000,
		MinUKHz: 27000, MaxUKHz: 27000,
	}
	DomainPllLimits = clk.PllLimits{
		MinM: 1, MaxM: 31,
		MinN: 8, MaxN: 1023,
		MinPl: 1, MaxPl: 31,
		MinVcoKHz: 500000, MaxVcoKHz: 2600000,
		MinUKHz: 1000, MaxUKHz: 27000,
	}
	MpllLimits = clk.PllLimits{
		MinM: 1, MaxM: 4,
		MinN: 16, MaxN: 255,
		MinPl: 1, MaxPl: 4,
		MinVcoKHz: 800000, MaxVcoKHz: 3400000,
		MinUKHz: 6750, MaxUKHz: 27000,
	}
)

// Schematic is the GX100 DAG along with the nodes callers may need
// directly.
type Schematic struct {
	schematic.Dag

	Xtal           *clk.Xtal
	Sppll0, Sppll1 *clk.ReadOnly
	Syspll         *clk.APll
	Disppll        *clk.APll
	Mpll           *clk.APll
	Gpc, Xbar      *clk.Nafll
	Mclk           *clk.Companion

	// GpcInstance is the surviving GPC whose NAFLL drives gpcclk, or -1
	// before Init.
	GpcInstance int
}

func newPll(name string, bus reg.Bus, p Pll, input, bypass clk.FreqSrc, limits clk.PllLimits) *clk.APll {
	pll := &clk.APll{
		NodeName:    name,
		Bus:         bus,
		Enable:      p.Enable(),
		Lock:        p.Lock(),
		M:           p.M(),
		N:           p.N(),
		Pl:          p.Pl(),
		Input:       input,
		Limits:      limits,
		LockTimeout: LockTimeout,
		SettleTime:  SettleTime,
	}
	if bypass != nil {
		pll.Bypass = bypass
		pll.BypassSel = p.Bypass()
	}
	return pll
}

func newSppll(name string, bus reg.Bus, p Pll, sel uint32, xtal clk.FreqSrc) *clk.ReadOnly {
	vco := newPll(name+"-vco", bus, p, xtal, nil, SpllLimits)
	return clk.NewReadOnly(name, clk.NewMux(name+"-mux", bus,
		reg.Field{Addr: sel, Width: 1},
		clk.MuxInput{Src: vco, Source: clk.SourcePll, Value: 0},
		clk.MuxInput{Src: xtal, Source: clk.SourceBypass, Value: 1},
	))
}

// newAltDomain wires a domain that selects between a divided shared PLL
// below altMaxKHz and its own PLL at or above.
func newAltDomain(id clk.DomainID, bus reg.Bus, sel, gate reg.Field, div uint32, alt clk.FreqSrc, pll *clk.APll, altMaxKHz uint32) *clk.FreqDomain {
	mux := clk.NewMux(id.String()+"-mux", bus, sel,
		clk.MuxInput{
			Src:    clk.NewDivider(id.String()+"-div", bus, divField(div), alt, 1, 63),
			Source: clk.SourceAlt,
			Value:  SelAlt,
		},
		clk.MuxInput{Src: pll, Source: clk.SourcePll, Value: SelPll},
	)
	mux.Glitchy = true
	mux.Gate = gate
	mux.SwitchDelay = SwitchDelay
	d := clk.NewDomain(id, mux, 500)
	d.AltPathMaxKHz = altMaxKHz
	d.AltPath = clk.PathOf(0)
	d.PllPath = clk.PathOf(1)
	return d
}

// New wires the schematic on bus. Memory clock switches are requested
// of mclk.
func New(bus reg.Bus, mclk clk.Switcher) *Schematic {
	s := &Schematic{GpcInstance: -1}
	s.Name = "gx100"
	s.Bus = bus

	s.Xtal = clk.NewXtal("xtal", XtalKHz)
	s.Sppll0 = newSppll("sppll0", bus, Sppll0, Sppll0Mux, s.Xtal)
	s.Sppll1 = newSppll("sppll1", bus, Sppll1, Sppll1Mux, s.Xtal)
	s.ReadOnly = []*clk.ReadOnly{s.Sppll0, s.Sppll1}

	s.Syspll = newPll("syspll", bus, Syspll, s.Xtal, s.Xtal, DomainPllLimits)
	s.Disppll = newPll("disppll", bus, Disppll, s.Xtal, s.Xtal, DomainPllLimits)
	s.Mpll = newPll("mpll", bus, Mpll, s.Xtal, nil, MpllLimits)

	s.Gpc = &clk.Nafll{
		NodeName: "gpc-nafll",
		Bus:      bus,
		MinKHz:   405000,
		MaxKHz:   2100000,
		StepKHz:  1000,
	}
	s.Xbar = &clk.Nafll{
		NodeName: "xbar-nafll",
		Bus:      bus,
		Freq:     nafllField(XbarNafll),
		MinKHz:   405000,
		MaxKHz:   1800000,
		StepKHz:  1000,
	}
	s.Mclk = &clk.Companion{
		NodeName: "mclk",
		Input:    s.Mpll,
		Switcher: mclk,
		MinKHz:   405000,
		MaxKHz:   3400000,
	}

	gpc := clk.NewDomain(clk.Gpcclk, s.Gpc, 1000)
	gpc.Volatile = true
	xbar := clk.NewDomain(clk.Xbarclk, s.Xbar, 1000)
	xbar.Volatile = true
	mem := clk.NewDomain(clk.Mclk, s.Mclk, 1000)
	mem.Reread = true

	s.Domains.Add(
		gpc,
		xbar,
		newAltDomain(clk.Sysclk, bus, SysMuxSel, SysMuxGate, SysDiv,
			s.Sppll0, s.Syspll, SysAltMaxKHz),
		clk.NewDomain(clk.Hubclk,
			clk.NewDivider("hubclk-div", bus, divField(HubDiv), s.Sppll0, 1, 63),
			500),
		mem,
		clk.NewDomain(clk.Hostclk,
			clk.NewDivider("hostclk-div", bus, divField(HostDiv), s.Sppll1, 1, 63),
			500),
		newAltDomain(clk.Dispclk, bus, DispMuxSel, DispMuxGate, DispDiv,
			s.Sppll1, s.Disppll, DispAltMaxKHz),
		clk.NewDomain(clk.Utilsclk, clk.NewWire("utilsclk", s.Xtal), 0),
		clk.NewDomain(clk.Pwrclk,
			clk.NewMux("pwrclk-mux", bus, PwrMuxSel,
				clk.MuxInput{Src: s.Xtal, Source: clk.SourceXtal},
				clk.MuxInput{
					Src: clk.NewDivider("pwrclk-div", bus,
						divField(PwrDiv), s.Sppll1, 1, 63),
					Value: 1,
				},
			),
			500),
	)
	s.Resolvers = append(s.Resolvers, s.resolveGpc)
	return s
}

// resolveGpc points gpcclk at the first GPC that wasn't floorswept.
func (s *Schematic) resolveGpc(bus reg.Bus) error {
	disabled := bus.Read32(FuseGpcDisable)
	for i := 0; i < NumGpc; i++ {
		if disabled&(1<<i) == 0 {
			s.Gpc.Freq = GpcNafll(i)
			s.GpcInstance = i
			return nil
		}
	}
	return fmt.Errorf("gpc: all %d instances floorswept (fuse %#x)",
		NumGpc, disabled)
}
