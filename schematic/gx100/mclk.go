// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package gx100

import (
	"time"

	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/mclk"
	"github.com/platinasystems/clk3/reg"
)

// NewSequencer returns the memory clock sequencer of the MPLL on bus.
func NewSequencer(bus reg.Bus) *mclk.Sequencer {
	return &mclk.Sequencer{
		Bus:          bus,
		Pll:          newPll("mpll", bus, Mpll, clk.NewXtal("xtal", XtalKHz), nil, MpllLimits),
		SelfRefresh:  MemSelfRefresh,
		Ack:          MemAck,
		AckTimeout:   10 * time.Millisecond,
		ToleranceKHz: 1000,
	}
}
