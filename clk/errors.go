// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"errors"

	"github.com/platinasystems/clk3/reg"
)

var (
	ErrInvalidPath      = errors.New("invalid path")
	ErrMismatchedTarget = errors.New("mismatched target")
	ErrFreqNotSupported = errors.New("frequency not supported")
	ErrInvalidSource    = errors.New("invalid source")
	ErrVerify           = errors.New("verify mismatch")
	ErrTimeout          = reg.ErrTimeout
)
