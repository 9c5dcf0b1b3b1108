// Copyright © 2015-2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"strings"
)

func LastArg(args []string) (s string) {
	if len(args) > 0 {
		s = args[len(args)-1]
	}
	return
}

// CompleteFlags returns each name matching the last, dash prefixed, arg.
func CompleteFlags(names []string, args []string) (c []string) {
	arg := strings.TrimLeft(LastArg(args), "-")
	for _, name := range names {
		name = strings.TrimLeft(name, "-")
		if len(arg) == 0 || strings.HasPrefix(name, arg) {
			c = append(c, fmt.Sprint("-", name))
		}
	}
	return
}

func CompleteStrings(l []string, args []string) (c []string) {
	arg := LastArg(args)
	for _, s := range l {
		if len(s) == 0 {
			continue
		}
		if len(arg) == 0 || strings.HasPrefix(s, arg) {
			c = append(c, s)
		}
	}
	return
}
