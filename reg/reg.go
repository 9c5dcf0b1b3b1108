// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package reg provides the 32-bit register access used by clock nodes.
package reg

import "fmt"

// Bus reads and writes 32-bit registers by address.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr, v uint32)
}

// Field is a bit range within a 32-bit register.
type Field struct {
	Addr  uint32
	Shift uint8
	Width uint8
}

func (f Field) Valid() bool { return f.Width != 0 && int(f.Shift)+int(f.Width) <= 32 }

func (f Field) Mask() uint32 {
	return uint32((uint64(1)<<f.Width)-1) << f.Shift
}

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 { return f.Mask() >> f.Shift }

func (f Field) Get(bus Bus) uint32 {
	return f.Extract(bus.Read32(f.Addr))
}

func (f Field) Extract(v uint32) uint32 { return (v & f.Mask()) >> f.Shift }

func (f Field) Insert(v, x uint32) uint32 {
	return (v &^ f.Mask()) | ((x << f.Shift) & f.Mask())
}

// Set does a read-modify-write of the field and reports whether the
// register changed.
func (f Field) Set(bus Bus, x uint32) bool {
	if x > f.Max() {
		panic(fmt.Errorf("%v: value %#x exceeds field", f, x))
	}
	v := bus.Read32(f.Addr)
	nv := f.Insert(v, x)
	if nv == v {
		return false
	}
	bus.Write32(f.Addr, nv)
	return true
}

func (f Field) String() string {
	return fmt.Sprintf("0x%06x[%d:%d]", f.Addr, int(f.Shift)+int(f.Width)-1,
		f.Shift)
}
