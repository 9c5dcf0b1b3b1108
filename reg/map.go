// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package reg

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Hook is run after a Write32 to its register has been stored.
type Hook func(m *Map, addr, v uint32)

// Map is an in-memory register file. Unwritten registers read zero.
type Map struct {
	mutex  sync.Mutex
	regs   map[uint32]uint32
	hooks  map[uint32][]Hook
	writes int
}

func NewMap() *Map {
	return &Map{
		regs:  make(map[uint32]uint32),
		hooks: make(map[uint32][]Hook),
	}
}

func (m *Map) Read32(addr uint32) uint32 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.regs[addr]
}

func (m *Map) Write32(addr, v uint32) {
	m.mutex.Lock()
	m.regs[addr] = v
	m.writes++
	hooks := m.hooks[addr]
	m.mutex.Unlock()
	for _, h := range hooks {
		h(m, addr, v)
	}
}

// Poke stores a register value as hardware would, without counting it as a
// write or running hooks.
func (m *Map) Poke(addr, v uint32) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.regs[addr] = v
}

// PokeField is Poke of a single field.
func (m *Map) PokeField(f Field, x uint32) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.regs[f.Addr] = f.Insert(m.regs[f.Addr], x)
}

func (m *Map) OnWrite(addr uint32, h Hook) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.hooks[addr] = append(m.hooks[addr], h)
}

// Writes returns the number of Write32 calls since the last ResetWrites.
func (m *Map) Writes() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.writes
}

func (m *Map) ResetWrites() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.writes = 0
}

func (m *Map) WriteTo(w io.Writer) (int64, error) {
	m.mutex.Lock()
	addrs := make([]uint32, 0, len(m.regs))
	for addr := range m.regs {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	vals := make([]uint32, len(addrs))
	for i, addr := range addrs {
		vals[i] = m.regs[addr]
	}
	m.mutex.Unlock()
	var n int64
	for i, addr := range addrs {
		nw, err := fmt.Fprintf(w, "0x%06x: 0x%06x\n", addr, vals[i])
		n += int64(nw)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
