// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package gx100

import "github.com/platinasystems/clk3/reg"

const XtalKHz = 27000

// Bar0Size is the length of the register window.
const Bar0Size = 16 << 20

// Bit i of FuseGpcDisable is set if GPC i was floorswept.
const (
	FuseGpcDisable = 0x021c04
	NumGpc         = 4
)

const (
	GpcNafllBase   = 0x132800
	GpcNafllStride = 0x20
	XbarNafll      = 0x132900
)

// Pll is the register pair of each analog PLL.
type Pll struct {
	Ctl, Coeff uint32
}

var (
	Sppll0  = Pll{0x00e800, 0x00e804}
	Sppll1  = Pll{0x00e820, 0x00e824}
	Syspll  = Pll{0x137000, 0x137004}
	Disppll = Pll{0x137020, 0x137024}
	Mpll    = Pll{0x10f000, 0x10f004}
)

const (
	PllEnableBit = 1 << 0
	PllBypassBit = 1 << 2
	PllLockBit   = 1 << 17
)

func (p Pll) Enable() reg.Field { return reg.Field{Addr: p.Ctl, Shift: 0, Width: 1} }
func (p Pll) Bypass() reg.Field { return reg.Field{Addr: p.Ctl, Shift: 2, Width: 1} }
func (p Pll) Lock() reg.Field   { return reg.Field{Addr: p.Ctl, Shift: 17, Width: 1} }
func (p Pll) M() reg.Field      { return reg.Field{Addr: p.Coeff, Shift: 0, Width: 8} }
func (p Pll) N() reg.Field      { return reg.Field{Addr: p.Coeff, Shift: 8, Width: 10} }
func (p Pll) Pl() reg.Field     { return reg.Field{Addr: p.Coeff, Shift: 18, Width: 6} }

// CoeffValue packs m, n and pl as the Coeff register holds them.
func CoeffValue(m, n, pl uint32) uint32 { return m | n<<8 | pl<<18 }

const (
	Sppll0Mux = 0x00e810
	Sppll1Mux = 0x00e830

	SysMux  = 0x137100
	SysDiv  = 0x137104
	DispMux = 0x137200
	DispDiv = 0x137204
	HubDiv  = 0x137400
	HostDiv = 0x137410
	PwrMux  = 0x137420
	PwrDiv  = 0x137424

	MemCtl = 0x100200
)

// Selector values of the sysclk and dispclk muxes.
const (
	SelAlt = 0
	SelPll = 3
)

var (
	SysMuxSel   = reg.Field{Addr: SysMux, Width: 2}
	SysMuxGate  = reg.Field{Addr: SysMux, Shift: 31, Width: 1}
	DispMuxSel  = reg.Field{Addr: DispMux, Width: 2}
	DispMuxGate = reg.Field{Addr: DispMux, Shift: 31, Width: 1}
	PwrMuxSel   = reg.Field{Addr: PwrMux, Width: 1}

	MemSelfRefresh = reg.Field{Addr: MemCtl, Shift: 0, Width: 1}
	MemAck         = reg.Field{Addr: MemCtl, Shift: 8, Width: 1}
)

func divField(addr uint32) reg.Field   { return reg.Field{Addr: addr, Width: 6} }
func nafllField(addr uint32) reg.Field { return reg.Field{Addr: addr, Width: 12} }

// GpcNafll returns the frequency field, in MHz, of GPC instance i.
func GpcNafll(i int) reg.Field {
	return nafllField(GpcNafllBase + uint32(i)*GpcNafllStride)
}
