// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package reg

import (
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
)

var ErrTimeout = errors.New("timeout")

const maxPollInterval = 100 * time.Microsecond

// Poll reads addr until the masked value equals want or the timeout
// expires. The last value read is returned either way.
func Poll(bus Bus, addr, mask, want uint32, timeout time.Duration) (uint32, error) {
	b := &backoff.Backoff{
		Min:    time.Microsecond,
		Max:    maxPollInterval,
		Factor: 2,
		Jitter: false,
	}
	start := time.Now()
	for {
		v := bus.Read32(addr)
		if v&mask == want {
			return v, nil
		}
		if time.Since(start) >= timeout {
			return v, fmt.Errorf("0x%06x: 0x%06x&0x%06x != 0x%06x after %v: %w",
				addr, v, mask, want, timeout, ErrTimeout)
		}
		time.Sleep(b.Duration())
	}
}
