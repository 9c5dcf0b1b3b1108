// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clkd

import (
	"fmt"
	"io"
	"net/rpc"
	"strings"
	"sync"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/clk3/clk"
	"github.com/platinasystems/clk3/regkey"
	"github.com/platinasystems/clk3/schematic"
	"github.com/platinasystems/log"
	uuid "github.com/satori/go.uuid"
)

// Name of the daemon's socket.
const Name = "clkd"

type DomainState struct {
	Name    string
	FreqKHz uint32
	Source  string
	Path    string
	Err     string
}

func (st DomainState) String() string {
	if len(st.Err) > 0 {
		return fmt.Sprintf("%s: %s", st.Name, st.Err)
	}
	return fmt.Sprintf("%s: %d KHz %s path %s", st.Name, st.FreqKHz,
		st.Source, st.Path)
}

type ReadArgs struct {
	// Domains to read; empty for all present.
	Domains []string
}

type ReadReply struct {
	Domains []DomainState
}

type SwitchArgs struct {
	Domain       string
	FreqKHz      uint32
	Source       string
	Path         string
	ToleranceKHz uint32
	Force        bool
}

type SwitchReply struct {
	ID         string
	PhaseCount int
	State      DomainState
}

// Service is implemented by the local Clk and the remote Client.
type Service interface {
	Read(args ReadArgs, reply *ReadReply) error
	Switch(args SwitchArgs, reply *SwitchReply) error
	Print(_ int, reply *string) error
}

// Publisher is the subset of the redis publisher used to announce
// domain frequency changes.
type Publisher interface {
	Print(a ...interface{}) (int, error)
}

// Clk serves a schematic, one request at a time.
type Clk struct {
	mutex sync.Mutex
	dag   *schematic.Dag
	keys  regkey.Keys
	pub   Publisher
	last  map[string]uint32
}

func NewClk(dag *schematic.Dag, keys regkey.Keys, pub Publisher) *Clk {
	keys.Apply(&dag.Domains)
	return &Clk{
		dag:  dag,
		keys: keys,
		pub:  pub,
		last: make(map[string]uint32),
	}
}

func stateOf(d *clk.FreqDomain, err error) DomainState {
	st := DomainState{
		Name:    d.Name,
		FreqKHz: d.Output.FreqKHz,
		Source:  d.Output.Source.String(),
		Path:    d.Output.Path.String(),
	}
	if err != nil {
		st.Err = err.Error()
	}
	return st
}

// publish announces a domain's frequency if it changed.
func (c *Clk) publish(d *clk.FreqDomain) {
	khz := d.Output.FreqKHz
	if c.pub == nil || c.last[d.Name] == khz {
		return
	}
	c.last[d.Name] = khz
	c.pub.Print("clk.", d.Name, ".khz: ", khz)
}

func (c *Clk) domains(names []string) ([]*clk.FreqDomain, error) {
	var ds []*clk.FreqDomain
	if len(names) == 0 {
		c.dag.Domains.Each(func(d *clk.FreqDomain) {
			ds = append(ds, d)
		})
		return ds, nil
	}
	for _, name := range names {
		id, err := clk.ParseDomainID(name)
		if err != nil {
			return nil, err
		}
		d, err := c.dag.Domain(id)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, nil
}

func (c *Clk) Read(args ReadArgs, reply *ReadReply) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ds, err := c.domains(args.Domains)
	if err != nil {
		return err
	}
	reply.Domains = reply.Domains[:0]
	for _, d := range ds {
		_, err := c.dag.Read(d.ID)
		reply.Domains = append(reply.Domains, stateOf(d, err))
		if err == nil {
			c.publish(d)
		}
	}
	return nil
}

func targetOf(args SwitchArgs) (*clk.Target, error) {
	src := clk.SourceDefault
	if len(args.Source) > 0 {
		var err error
		if src, err = clk.ParseSource(args.Source); err != nil {
			return nil, err
		}
	}
	path, err := clk.ParsePath(args.Path)
	if err != nil {
		return nil, err
	}
	return clk.NewTarget(args.FreqKHz, src, path).
		WithTolerance(args.ToleranceKHz, args.ToleranceKHz), nil
}

func (c *Clk) Switch(args SwitchArgs, reply *SwitchReply) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	reply.ID = uuid.NewV4().String()
	id, err := clk.ParseDomainID(args.Domain)
	if err != nil {
		return err
	}
	d, err := c.dag.Domain(id)
	if err != nil {
		return err
	}
	if c.keys.Disabled(id) {
		return fmt.Errorf("%v: disabled by %sdisable", id, regkey.Prefix)
	}
	target, err := targetOf(args)
	if err != nil {
		return err
	}
	log.Print("daemon", "info", reply.ID, ": ", d.Name, ": ", target)
	d.Force = args.Force || c.keys.Force.Has(id)
	err = c.dag.Switch(id, target)
	d.Force = c.keys.Force.Has(id)
	reply.PhaseCount = d.PhaseCount
	reply.State = stateOf(d, err)
	if err != nil {
		log.Print("daemon", "err", reply.ID, ": ", err)
		return err
	}
	c.publish(d)
	return nil
}

func (c *Clk) Print(_ int, reply *string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	buf := new(strings.Builder)
	c.dag.Print(buf)
	*reply = buf.String()
	return nil
}

// Update re-reads the volatile domains and publishes any change.
func (c *Clk) Update() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.dag.Domains.Each(func(d *clk.FreqDomain) {
		if !d.Volatile {
			return
		}
		if err := d.Read(); err != nil {
			log.Print("daemon", "err", d.Name, ": ", err)
			return
		}
		c.publish(d)
	})
}

// PublishAll announces every domain read so far.
func (c *Clk) PublishAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.dag.Domains.Each(func(d *clk.FreqDomain) {
		if d.Output.Valid() {
			c.publish(d)
		}
	})
}

// Client is a Service of a remote clkd.
type Client struct {
	Name string
	Dial func(name string) (*rpc.Client, error)
}

func NewClient() *Client {
	return &Client{Name: Name, Dial: atsock.NewRpcClient}
}

func (cl *Client) call(method string, args, reply interface{}) error {
	rc, err := cl.Dial(cl.Name)
	if err != nil {
		return fmt.Errorf("%s: %w", cl.Name, err)
	}
	defer rc.Close()
	return rc.Call("Clk."+method, args, reply)
}

func (cl *Client) Read(args ReadArgs, reply *ReadReply) error {
	return cl.call("Read", args, reply)
}

func (cl *Client) Switch(args SwitchArgs, reply *SwitchReply) error {
	return cl.call("Switch", args, reply)
}

func (cl *Client) Print(_ int, reply *string) error {
	return cl.call("Print", 0, reply)
}

// WriteStates prints one line per domain.
func WriteStates(w io.Writer, states []DomainState) {
	for _, st := range states {
		fmt.Fprintln(w, st)
	}
}
