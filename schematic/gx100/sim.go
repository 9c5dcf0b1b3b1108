// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package gx100

import (
	"sync"

	"github.com/platinasystems/clk3/reg"
)

// Boot frequencies of the simulator.
const (
	BootSppll0KHz  = 1620000
	BootSppll1KHz  = 1350000
	BootSysKHz     = 810000
	BootDispKHz    = 337500
	BootHubKHz     = 540000
	BootHostKHz    = 270000
	BootPwrKHz     = XtalKHz
	BootGpcKHz     = 1410000
	BootXbarKHz    = 1300000
	BootMclkKHz    = 1620000
	BootUtilsKHz   = XtalKHz
	bootPwrDivisor = 27
)

// Sim is a register file booted as devinit leaves the chip. PLLs lock
// when enabled and the memory controller acknowledges self refresh
// requests.
type Sim struct {
	*reg.Map

	mutex sync.Mutex
	stuck map[uint32]bool
}

func NewSim() *Sim {
	sim := &Sim{
		Map:   reg.NewMap(),
		stuck: make(map[uint32]bool),
	}
	for _, p := range []Pll{Sppll0, Sppll1, Syspll, Disppll, Mpll} {
		sim.OnWrite(p.Ctl, sim.lock)
	}
	sim.OnWrite(MemCtl, func(m *reg.Map, addr, v uint32) {
		m.Poke(addr, MemAck.Insert(v, MemSelfRefresh.Extract(v)))
	})
	sim.Boot()
	return sim
}

func (sim *Sim) lock(m *reg.Map, addr, v uint32) {
	sim.mutex.Lock()
	stuck := sim.stuck[addr]
	sim.mutex.Unlock()
	if v&PllEnableBit != 0 && !stuck {
		v |= PllLockBit
	} else {
		v &^= PllLockBit
	}
	m.Poke(addr, v)
}

// Boot resets the registers to their devinit state.
func (sim *Sim) Boot() {
	running := uint32(PllEnableBit | PllLockBit)
	sim.Poke(Sppll0.Ctl, running)
	sim.Poke(Sppll0.Coeff, CoeffValue(1, 60, 1))
	sim.Poke(Sppll0Mux, 0)
	sim.Poke(Sppll1.Ctl, running)
	sim.Poke(Sppll1.Coeff, CoeffValue(1, 50, 1))
	sim.Poke(Sppll1Mux, 0)

	sim.Poke(Syspll.Ctl, running)
	sim.Poke(Syspll.Coeff, CoeffValue(1, 30, 1))
	sim.Poke(SysMux, SelPll)
	sim.Poke(SysDiv, 2)

	sim.Poke(Disppll.Ctl, 0)
	sim.Poke(Disppll.Coeff, 0)
	sim.Poke(DispMux, SelAlt)
	sim.Poke(DispDiv, 4)

	sim.Poke(HubDiv, 3)
	sim.Poke(HostDiv, 5)
	sim.Poke(PwrMux, 0)
	sim.Poke(PwrDiv, bootPwrDivisor)

	for i := 0; i < NumGpc; i++ {
		sim.PokeField(GpcNafll(i), BootGpcKHz/1000)
	}
	sim.PokeField(nafllField(XbarNafll), BootXbarKHz/1000)

	sim.Poke(Mpll.Ctl, running)
	sim.Poke(Mpll.Coeff, CoeffValue(1, 60, 1))
	sim.Poke(MemCtl, 0)
	sim.Poke(FuseGpcDisable, 0)
}

// Floorsweep sets the GPC disable fuses.
func (sim *Sim) Floorsweep(disabled uint32) {
	sim.Poke(FuseGpcDisable, disabled)
}

// StickLock keeps the PLL at ctl from ever locking.
func (sim *Sim) StickLock(ctl uint32) {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()
	sim.stuck[ctl] = true
}
