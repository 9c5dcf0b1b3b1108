// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package reg

import (
	"sync/atomic"

	"github.com/platinasystems/log"
)

// Trace wraps a Bus to count writes and, if Verbose, log every access.
type Trace struct {
	Bus
	Verbose bool
	writes  uint64
}

func (t *Trace) Read32(addr uint32) uint32 {
	v := t.Bus.Read32(addr)
	if t.Verbose {
		log.Printf("debug", "rd32 0x%06x: 0x%06x", addr, v)
	}
	return v
}

func (t *Trace) Write32(addr, v uint32) {
	if t.Verbose {
		log.Printf("debug", "wr32 0x%06x: 0x%06x", addr, v)
	}
	atomic.AddUint64(&t.writes, 1)
	t.Bus.Write32(addr, v)
}

func (t *Trace) Writes() uint64 { return atomic.LoadUint64(&t.writes) }
