// Copyright © 2015-2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package indent provides a writer that prefixes each line with a repeated
// indentation string.
package indent

import (
	"bytes"
	"io"
)

type Indenter struct {
	w      io.Writer
	prefix []byte
	level  int
	bol    bool
}

func New(w io.Writer, prefix string) *Indenter {
	return &Indenter{w: w, prefix: []byte(prefix), bol: true}
}

// Increase the indentation level of w if it's an Indenter.
func Increase(w io.Writer) {
	if p, ok := w.(*Indenter); ok {
		p.level++
	}
}

// Decrease the indentation level of w if it's an Indenter and above zero.
func Decrease(w io.Writer) {
	if p, ok := w.(*Indenter); ok && p.level > 0 {
		p.level--
	}
}

func (p *Indenter) Write(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if p.bol {
			for i := 0; i < p.level; i++ {
				if _, err := p.w.Write(p.prefix); err != nil {
					return n, err
				}
			}
			p.bol = false
		}
		line := b
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			line = b[:i+1]
			p.bol = true
		}
		nw, err := p.w.Write(line)
		n += nw
		if err != nil {
			return n, err
		}
		b = b[len(line):]
	}
	return n, nil
}
