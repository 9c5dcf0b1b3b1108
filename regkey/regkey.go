// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package regkey loads clock debug overrides from the redis hash.
//
//	clk.regkey.force: DOMAIN[,DOMAIN]...
//	clk.regkey.disable: DOMAIN[,DOMAIN]...
//	clk.regkey.margin.DOMAIN: KHZ
package regkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	redigo "github.com/garyburd/redigo/redis"
	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/redis"
)

const Prefix = "clk.regkey."

type Keys struct {
	// Force switches these domains even when within margin.
	Force clk.Mask
	// Disable refuses switches of these domains.
	Disable clk.Mask
	// MarginKHz overrides a domain's margin.
	MarginKHz map[clk.DomainID]uint32
}

// ParseMask parses comma separated domain names.
func ParseMask(s string) (clk.Mask, error) {
	var m clk.Mask
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if len(name) == 0 {
			continue
		}
		id, err := clk.ParseDomainID(name)
		if err != nil {
			return 0, err
		}
		m |= id.Bit()
	}
	return m, nil
}

// Parse the regkey fields of a hash, ignoring any without Prefix.
func Parse(fields map[string]string) (Keys, error) {
	var k Keys
	for field, v := range fields {
		if !strings.HasPrefix(field, Prefix) {
			continue
		}
		name := strings.TrimPrefix(field, Prefix)
		var err error
		switch {
		case name == "force":
			k.Force, err = ParseMask(v)
		case name == "disable":
			k.Disable, err = ParseMask(v)
		case strings.HasPrefix(name, "margin."):
			var id clk.DomainID
			var u uint64
			id, err = clk.ParseDomainID(strings.TrimPrefix(name, "margin."))
			if err == nil {
				u, err = strconv.ParseUint(v, 0, 32)
			}
			if err == nil {
				if k.MarginKHz == nil {
					k.MarginKHz = make(map[clk.DomainID]uint32)
				}
				k.MarginKHz[id] = uint32(u)
			}
		default:
			err = errors.New("unknown regkey")
		}
		if err != nil {
			return k, fmt.Errorf("%s: %w", field, err)
		}
	}
	return k, nil
}

// Load the regkeys from redis.DefaultHash.
func Load() (Keys, error) {
	conn, err := redis.Connect()
	if err != nil {
		return Keys{}, err
	}
	defer conn.Close()
	fields, err := redigo.StringMap(conn.Do("HGETALL", redis.DefaultHash))
	if err != nil {
		return Keys{}, err
	}
	return Parse(fields)
}

// Set stores a regkey in redis.DefaultHash.
func Set(name, value string) error {
	_, err := redis.Hset(redis.DefaultHash, Prefix+name, value)
	return err
}

// Apply sets each present domain's Force and margin overrides.
func (k Keys) Apply(r *clk.Registry) {
	r.Each(func(d *clk.FreqDomain) {
		d.Force = k.Force.Has(d.ID)
		if khz, ok := k.MarginKHz[d.ID]; ok {
			d.MarginKHz = khz
		}
	})
}

func (k Keys) Disabled(id clk.DomainID) bool { return k.Disable.Has(id) }
