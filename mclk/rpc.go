// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package mclk

import (
	"fmt"
	"net/rpc"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/atsock"
	"github.com/platinasystems/clk3/clk"
)

// Name of the sequencer daemon's socket.
const Name = "mclkd"

// Server exports a Switcher as the "Mclk" rpc service.
type Server struct {
	sw clk.Switcher
}

func NewServer(sw clk.Switcher) *Server { return &Server{sw} }

func (srv *Server) Switch(khz uint32, res *clk.SwitchResult) error {
	r, err := srv.sw.RequestFrequencySwitch(khz)
	*res = r
	return err
}

// Register the server with the default rpc server that atsock serves.
func (srv *Server) Register() error {
	return rpc.RegisterName("Mclk", srv)
}

// Client is a Switcher that calls a remote sequencer. Dial is retried
// with backoff, the switch itself is not.
type Client struct {
	Name     string
	Attempts int
	Dial     func(name string) (*rpc.Client, error)
	Backoff  backoff.Backoff
}

func NewClient(name string) *Client {
	return &Client{
		Name:     name,
		Attempts: 5,
		Dial:     atsock.NewRpcClient,
		Backoff: backoff.Backoff{
			Min:    10 * time.Millisecond,
			Max:    time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
}

func (c *Client) dial() (*rpc.Client, error) {
	defer c.Backoff.Reset()
	for i := 1; ; i++ {
		cl, err := c.Dial(c.Name)
		if err == nil {
			return cl, nil
		}
		if i >= c.Attempts {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		time.Sleep(c.Backoff.Duration())
	}
}

func (c *Client) RequestFrequencySwitch(khz uint32) (clk.SwitchResult, error) {
	var res clk.SwitchResult
	cl, err := c.dial()
	if err != nil {
		return res, err
	}
	defer cl.Close()
	err = cl.Call("Mclk.Switch", khz, &res)
	return res, err
}
