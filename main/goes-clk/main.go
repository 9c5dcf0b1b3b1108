// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is the clock configuration program of the gx100 family. Link it
// as clkd or mclkd to run the respective daemon directly.
package main

import (
	"github.com/platinasystems/clk3/cmd/clk"
	"github.com/platinasystems/clk3/cmd/clkd"
	"github.com/platinasystems/clk3/cmd/mclkd"
	"github.com/platinasystems/clk3/cmd/schematic"
	"github.com/platinasystems/clk3/goes"
)

func main() {
	goes.Selection{
		"clk":       clk.Main,
		"clkd":      clkd.Main,
		"mclkd":     mclkd.Main,
		"schematic": schematic.Main,
	}.Main()
}
