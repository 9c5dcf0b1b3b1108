// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package reg

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const DevMem = "/dev/mem"

// Mem is a memory-mapped register window; addresses are offsets into it.
type Mem struct {
	f *os.File
	b []byte
}

// OpenMem maps size bytes of physical memory at base.
func OpenMem(base int64, size int) (*Mem, error) {
	f, err := os.OpenFile(DevMem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	b, err := unix.Mmap(int(f.Fd()), base, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s@%#x: %w", DevMem, base, err)
	}
	return &Mem{f: f, b: b}, nil
}

func (m *Mem) ptr(addr uint32) *uint32 {
	if addr&3 != 0 || int(addr)+4 > len(m.b) {
		panic(fmt.Errorf("0x%06x: outside of %#x byte window", addr, len(m.b)))
	}
	return (*uint32)(unsafe.Pointer(&m.b[addr]))
}

func (m *Mem) Read32(addr uint32) uint32 { return atomic.LoadUint32(m.ptr(addr)) }

func (m *Mem) Write32(addr, v uint32) { atomic.StoreUint32(m.ptr(addr), v) }

func (m *Mem) Close() error {
	err := unix.Munmap(m.b)
	if xerr := m.f.Close(); err == nil {
		err = xerr
	}
	return err
}
