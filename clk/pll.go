// Copyright © 2022 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"fmt"
	"io"
	"time"

	"github.com/platinasystems/clk3/reg"
)

// Coeff are the PLL dividers; output = ref * N / (M * Pl).
type Coeff struct {
	M, N, Pl uint32
}

func (c Coeff) Valid() bool { return c.M != 0 && c.N != 0 && c.Pl != 0 }

func (c Coeff) FreqKHz(refKHz uint32) uint32 {
	if !c.Valid() {
		return 0
	}
	return uint32(uint64(refKHz) * uint64(c.N) / (uint64(c.M) * uint64(c.Pl)))
}

func (c Coeff) String() string {
	return fmt.Sprintf("M %d N %d PL %d", c.M, c.N, c.Pl)
}

// PllLimits bound the coefficient search. U is the phase detector update
// rate, ref / M.
type PllLimits struct {
	MinM, MaxM           uint32
	MinN, MaxN           uint32
	MinPl, MaxPl         uint32
	MinVcoKHz, MaxVcoKHz uint32
	MinUKHz, MaxUKHz     uint32
}

// Search returns the coefficients whose output is nearest the target
// frequency while within its range. Ties go to the smaller Pl then the
// smaller M.
func (l *PllLimits) Search(refKHz uint32, target *Target) (Coeff, uint32, bool) {
	var best Coeff
	var bestKHz uint32
	bestErr := ^uint64(0)
	if refKHz == 0 {
		return best, 0, false
	}
	ref := uint64(refKHz)
	want := uint64(target.FreqKHz)
	for pl := l.MinPl; pl <= l.MaxPl; pl++ {
		for m := l.MinM; m <= l.MaxM; m++ {
			u := ref / uint64(m)
			if u < uint64(l.MinUKHz) || u > uint64(l.MaxUKHz) {
				continue
			}
			n := (want*uint64(m)*uint64(pl) + ref/2) / ref
			if n < uint64(l.MinN) {
				n = uint64(l.MinN)
			} else if n > uint64(l.MaxN) {
				n = uint64(l.MaxN)
			}
			vco := ref * n / uint64(m)
			if vco < uint64(l.MinVcoKHz) || vco > uint64(l.MaxVcoKHz) {
				continue
			}
			f := vco / uint64(pl)
			if f > uint64(^uint32(0)) || !target.Range.Contains(uint32(f)) {
				continue
			}
			e := f - want
			if f < want {
				e = want - f
			}
			if e < bestErr {
				bestErr = e
				best = Coeff{m, uint32(n), pl}
				bestKHz = uint32(f)
			}
		}
	}
	return best, bestKHz, bestErr != ^uint64(0)
}

type pllPhase struct {
	coeff    Coeff
	bypass   bool
	enabled  bool
	slidable bool
	set      bool
}

// APll is an analog PLL driven by a reference input with an optional
// bypass input selected by BypassSel.
//
// Program slides N in SlideStep increments, waiting SlideStepDelay between
// steps, when a hot switch only changes N of a locked PLL; otherwise it
// disables the PLL, writes the coefficients, enables it and polls Lock for
// LockTimeout before waiting SettleTime.
type APll struct {
	NodeName  string
	Bus       reg.Bus
	Enable    reg.Field
	Lock      reg.Field
	BypassSel reg.Field
	M, N, Pl  reg.Field
	Input     FreqSrc
	Bypass    FreqSrc
	Limits    PllLimits

	LockTimeout    time.Duration
	SettleTime     time.Duration
	SlideStep      uint32
	SlideStepDelay time.Duration

	phase [MaxPhases]pllPhase
}

func (p *APll) Name() string { return p.NodeName }

func (p *APll) Inputs() []FreqSrc {
	if p.Bypass != nil {
		return []FreqSrc{p.Input, p.Bypass}
	}
	return []FreqSrc{p.Input}
}

func (p *APll) readCoeff() Coeff {
	return Coeff{
		M:  p.M.Get(p.Bus),
		N:  p.N.Get(p.Bus),
		Pl: p.Pl.Get(p.Bus),
	}
}

func (p *APll) bypassed() bool {
	return p.Bypass != nil && p.BypassSel.Valid() && p.BypassSel.Get(p.Bus) != 0
}

func (p *APll) locked() bool { return p.Lock.Get(p.Bus) != 0 }

func (p *APll) Read(out *Signal, active bool) error {
	if p.bypassed() {
		if err := p.Bypass.Read(out, active); err != nil {
			return err
		}
		out.Source = SourceBypass
		p.phase[0] = pllPhase{bypass: true, set: true}
		return nil
	}
	var ref Signal
	if err := p.Input.Read(&ref, active); err != nil {
		return err
	}
	st := pllPhase{
		coeff:   p.readCoeff(),
		enabled: p.Enable.Get(p.Bus) != 0,
		set:     true,
	}
	p.phase[0] = st
	*out = Signal{Source: SourcePll, Path: ref.Path}
	if st.enabled && p.locked() {
		out.FreqKHz = st.coeff.FreqKHz(ref.FreqKHz)
	}
	return nil
}

func (p *APll) Config(out *Signal, phase int, target *Target, hotSwitch bool) error {
	checkPhase(p.NodeName, phase)
	switch target.Source {
	case SourceBypass:
		if p.Bypass == nil {
			return fmt.Errorf("%s: no bypass: %w", p.NodeName,
				ErrInvalidSource)
		}
		sub := *target
		sub.Source = SourceDefault
		if err := p.Bypass.Config(out, phase, &sub, hotSwitch); err != nil {
			return err
		}
		out.Source = SourceBypass
		p.phase[phase] = pllPhase{bypass: true, set: true}
		return nil
	case SourceDefault, SourcePll:
	default:
		return fmt.Errorf("%s: can't serve %v: %w", p.NodeName,
			target.Source, ErrInvalidSource)
	}
	var ref Signal
	refTarget := &Target{
		Signal: Signal{Path: target.Path},
		Range:  AnyFrequency,
	}
	if err := p.Input.Config(&ref, phase, refTarget, hotSwitch); err != nil {
		return err
	}
	c, khz, ok := p.Limits.Search(ref.FreqKHz, target)
	if !ok {
		return fmt.Errorf("%s: no coefficients for %v from %d KHz: %w",
			p.NodeName, target.Range, ref.FreqKHz, ErrFreqNotSupported)
	}
	cur := p.phase[0]
	slidable := hotSwitch && p.SlideStep != 0 && cur.set &&
		cur.enabled && !cur.bypass &&
		cur.coeff.M == c.M && cur.coeff.Pl == c.Pl
	p.phase[phase] = pllPhase{
		coeff:    c,
		enabled:  true,
		slidable: slidable,
		set:      true,
	}
	*out = Signal{FreqKHz: khz, Source: SourcePll, Path: ref.Path}
	return nil
}

func (p *APll) Program(phase int) error {
	checkPhase(p.NodeName, phase)
	st := p.phase[phase]
	if !st.set {
		panic(fmt.Errorf("%s: program phase %d before config",
			p.NodeName, phase))
	}
	if st.bypass {
		if err := p.Bypass.Program(phase); err != nil {
			return err
		}
		if p.BypassSel.Valid() {
			p.BypassSel.Set(p.Bus, 1)
		}
		p.phase[0] = st
		return nil
	}
	if err := p.Input.Program(phase); err != nil {
		return err
	}
	running := p.Enable.Get(p.Bus) != 0 && !p.bypassed() && p.locked()
	cur := p.readCoeff()
	switch {
	case running && cur == st.coeff:
	case running && st.slidable && cur.M == st.coeff.M &&
		cur.Pl == st.coeff.Pl:
		if err := p.slide(cur.N, st.coeff.N); err != nil {
			return err
		}
	default:
		if err := p.relock(st.coeff); err != nil {
			return err
		}
	}
	if p.bypassed() {
		p.BypassSel.Set(p.Bus, 0)
	}
	p.phase[0] = st
	return nil
}

func (p *APll) slide(from, to uint32) error {
	for n := from; n != to; {
		switch {
		case to > n && to-n > p.SlideStep:
			n += p.SlideStep
		case n > to && n-to > p.SlideStep:
			n -= p.SlideStep
		default:
			n = to
		}
		p.N.Set(p.Bus, n)
		if p.SlideStepDelay > 0 {
			time.Sleep(p.SlideStepDelay)
		}
	}
	if !p.locked() {
		return fmt.Errorf("%s: lost lock sliding N %d to %d: %w",
			p.NodeName, from, to, ErrVerify)
	}
	return nil
}

func (p *APll) relock(c Coeff) error {
	p.Enable.Set(p.Bus, 0)
	p.M.Set(p.Bus, c.M)
	p.N.Set(p.Bus, c.N)
	p.Pl.Set(p.Bus, c.Pl)
	p.Enable.Set(p.Bus, 1)
	mask := p.Lock.Mask()
	if _, err := reg.Poll(p.Bus, p.Lock.Addr, mask, mask, p.LockTimeout); err != nil {
		return fmt.Errorf("%s: lock: %w", p.NodeName, err)
	}
	if p.SettleTime > 0 {
		time.Sleep(p.SettleTime)
	}
	if got := p.readCoeff(); got != c {
		return fmt.Errorf("%s: %v != %v: %w", p.NodeName, got, c,
			ErrVerify)
	}
	return nil
}

// Cleanup powers down the PLL when it's off the active path or bypassed.
func (p *APll) Cleanup(active bool) error {
	bypassed := p.bypassed()
	if (!active || bypassed) && p.Enable.Get(p.Bus) != 0 {
		p.Enable.Set(p.Bus, 0)
		p.phase[0].enabled = false
	}
	if err := p.Input.Cleanup(active && !bypassed); err != nil {
		return err
	}
	if p.Bypass != nil {
		return p.Bypass.Cleanup(active && bypassed)
	}
	return nil
}

func (p *APll) Print(w io.Writer, phaseCount int) {
	fmt.Fprintf(w, "pll %s:", p.NodeName)
	for phase := 0; phase < phaseCount && phase < MaxPhases; phase++ {
		st := p.phase[phase]
		switch {
		case !st.set:
			fmt.Fprintf(w, " [%d]=?", phase)
		case st.bypass:
			fmt.Fprintf(w, " [%d]=bypass", phase)
		case !st.enabled:
			fmt.Fprintf(w, " [%d]=off", phase)
		default:
			fmt.Fprintf(w, " [%d]={%v}", phase, st.coeff)
		}
	}
	fmt.Fprintln(w)
	for _, src := range p.Inputs() {
		printInput(w, src, phaseCount)
	}
}
