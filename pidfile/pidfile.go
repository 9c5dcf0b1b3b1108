// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package pidfile records daemon pids in /run/goes/pids
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
)

var Dir = "/run/goes/pids"

// New writes the pid to Dir/name and returns a func that removes it.
func New(name string) (func() error, error) {
	if err := os.MkdirAll(Dir, 0755); err != nil {
		return nil, err
	}
	fn := filepath.Join(Dir, name)
	err := os.WriteFile(fn, []byte(fmt.Sprintln(os.Getpid())), 0644)
	if err != nil {
		return nil, err
	}
	return func() error { return os.Remove(fn) }, nil
}

// Pid returns the recorded pid of the named daemon.
func Pid(name string) (int, error) {
	b, err := os.ReadFile(filepath.Join(Dir, name))
	if err != nil {
		return 0, err
	}
	var pid int
	_, err = fmt.Sscan(string(b), &pid)
	return pid, err
}
