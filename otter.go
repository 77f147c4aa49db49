// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

// Package otter is a CDCL SAT solver for formulas in CNF, with
// incremental assumptions, an unsat core and clause lifecycle event
// stream, and configurable search heuristics.
//
// Atoms are created with Lit, clauses added with Add (literal by
// literal, z.LitNull terminated) or AddClause, and solved with Solve,
// which returns 1 (sat), -1 (unsat) or 0 (unknown).
package otter

import (
	"io"

	"github.com/pkg/errors"

	"github.com/teeaychem/otter-sat/dimacs"
	"github.com/teeaychem/otter-sat/inter"
	"github.com/teeaychem/otter-sat/internal/xo"
	"github.com/teeaychem/otter-sat/z"
)

// Config carries the solver's options; see NewConfig for the defaults.
type Config = xo.Config

// Stats aggregates solver counters.
type Stats = xo.Stats

// Event is one element of the clause lifecycle stream.
type Event = xo.Event

// EventKind discriminates clause lifecycle events.
type EventKind = xo.EventKind

const (
	EventOriginal = xo.EventOriginal
	EventLearn    = xo.EventLearn
	EventDelete   = xo.EventDelete
	EventFinal    = xo.EventFinal
	EventUnit     = xo.EventUnit
)

// StoppingCriteria selects when resolution stops during analysis.
type StoppingCriteria = xo.StoppingCriteria

const (
	FirstUIP   = xo.FirstUIP
	NoStopping = xo.NoStopping
)

// VsidsVariant selects the activity bump variant.
type VsidsVariant = xo.VsidsVariant

const (
	VsidsMiniSAT = xo.VsidsMiniSAT
	VsidsChaff   = xo.VsidsChaff
)

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return xo.NewConfig()
}

// ConfigFromMap overlays the defaults with generic options, as read
// from a configuration file.
func ConfigFromMap(m map[string]interface{}) (*Config, error) {
	return xo.ConfigFromMap(m)
}

// NewStats creates a stats object with the start time set.
func NewStats() *Stats {
	return xo.NewStats()
}

// ErrAtomExhausted is returned by FreshAtom when the atom space is
// full.
var ErrAtomExhausted = errors.New("atom space exhausted")

// Otter is a solving context.
type Otter struct {
	xo *xo.S
}

// New creates a solver with the default configuration.
func New() *Otter {
	return &Otter{xo: xo.NewS()}
}

// NewWith creates a solver with configuration cfg.
func NewWith(cfg *Config) *Otter {
	return &Otter{xo: xo.NewSC(cfg)}
}

// NewDimacs creates a solver from DIMACS formatted input.
func NewDimacs(r io.Reader) (*Otter, error) {
	return NewDimacsWith(nil, r)
}

// NewDimacsWith creates a configured solver from DIMACS formatted
// input.
func NewDimacsWith(cfg *Config, r io.Reader) (*Otter, error) {
	vis := &xo.DimacsVis{Config: cfg}
	if err := dimacs.ReadCnf(r, vis); err != nil {
		return nil, errors.Wrap(err, "reading dimacs")
	}
	return &Otter{xo: vis.S()}, nil
}

// Lit returns the positive literal of a fresh atom, z.LitNull on
// exhaustion.
func (o *Otter) Lit() z.Lit {
	return o.xo.Lit()
}

// FreshAtom returns a fresh atom.
func (o *Otter) FreshAtom() (z.Var, error) {
	m := o.xo.Lit()
	if m == z.LitNull {
		return z.VarNull, ErrAtomExhausted
	}
	return m.Var(), nil
}

// MaxVar returns the maximum atom added or assumed.
func (o *Otter) MaxVar() z.Var {
	return o.xo.MaxVar()
}

// Add adds a literal to the clause under construction.  To add the
// clause (x + y + z), one calls
//
//	o.Add(x)
//	o.Add(y)
//	o.Add(z)
//	o.Add(0)
//
// Duplicate literals are dropped and tautologies ignored.  Adding the
// empty clause makes the context permanently unsatisfiable.
func (o *Otter) Add(m z.Lit) {
	o.xo.Add(m)
}

// AddClause adds a complete clause.
func (o *Otter) AddClause(ms ...z.Lit) {
	for _, m := range ms {
		o.xo.Add(m)
	}
	o.xo.Add(z.LitNull)
}

// Assume makes the solver assume ms for the next call to Solve, at
// fresh decision levels before search starts.  Solve consumes the
// assumptions.
func (o *Otter) Assume(ms ...z.Lit) {
	o.xo.Assume(ms...)
}

// Solve solves the problem under the pending assumptions.  It returns 1
// if sat, -1 if unsat, and 0 if stopped, terminated, or out of time.
func (o *Otter) Solve() int {
	return o.xo.Solve()
}

// GoSolve runs Solve in its own goroutine.
func (o *Otter) GoSolve() inter.Solve {
	return o.xo.GoSolve()
}

// Value retrieves the value of the literal m after a satisfiable
// Solve.
func (o *Otter) Value(m z.Lit) bool {
	return o.xo.Value(m)
}

// Valuation appends a literal for every assigned atom, true atoms in
// positive form, and returns the result.
func (o *Otter) Valuation(dst []z.Lit) []z.Lit {
	for u := z.Var(1); u <= o.xo.MaxVar(); u++ {
		if o.xo.Value(u.Pos()) {
			dst = append(dst, u.Pos())
		} else {
			dst = append(dst, u.Neg())
		}
	}
	return dst
}

// Why gives a subset of the assumptions responsible for the last
// unsatisfiable result, stored in dst if possible.
func (o *Otter) Why(dst []z.Lit) []z.Lit {
	return o.xo.Why(dst)
}

// Failed indicates whether assumption m participated in the last
// unsatisfiable result.
func (o *Otter) Failed(m z.Lit) bool {
	return o.xo.Failed(m)
}

// Refresh returns the context to its root state, dropping pending
// assumptions and keeping learnt clauses.  Refresh is idempotent.
func (o *Otter) Refresh() {
	o.xo.Refresh()
}

// Core returns the unsatisfiable core after an unsatisfiable Solve: the
// original clauses contributing to the derivation of the empty clause.
func (o *Otter) Core() [][]z.Lit {
	return o.xo.Core()
}

// SetEventHandler registers the sink of the clause lifecycle stream:
// original and learnt additions with their antecedents, deletions,
// fixed units, and the final marking on unsat.
func (o *Otter) SetEventHandler(f func(ev Event)) {
	o.xo.SetEventHandler(f)
}

// SetTerminate registers a predicate polled between conflicts; when it
// returns true, Solve promptly returns 0.
func (o *Otter) SetTerminate(f func() bool) {
	o.xo.SetTerminate(f)
}

// SetLearnCallback registers a hook invoked with each learnt clause.
func (o *Otter) SetLearnCallback(f func(ms []z.Lit)) {
	o.xo.SetLearnCallback(f)
}

// SetAdditionCallback registers a hook invoked with each added clause.
func (o *Otter) SetAdditionCallback(f func(ms []z.Lit)) {
	o.xo.SetAdditionCallback(f)
}

// SetDeletionCallback registers a hook invoked with each deleted
// clause.
func (o *Otter) SetDeletionCallback(f func(ms []z.Lit)) {
	o.xo.SetDeletionCallback(f)
}

// SetFixedCallback registers a hook invoked with each literal fixed at
// the root level.
func (o *Otter) SetFixedCallback(f func(m z.Lit)) {
	o.xo.SetFixedCallback(f)
}

// SetFinaliseCallback registers a hook invoked with each core clause
// after an unsatisfiable result.
func (o *Otter) SetFinaliseCallback(f func(ev Event)) {
	o.xo.SetFinaliseCallback(f)
}

// SetTerminateCallback registers a hook invoked with the result when
// Solve returns.
func (o *Otter) SetTerminateCallback(f func(res int)) {
	o.xo.SetTerminateCallback(f)
}

// ReadStats reads solver counters into st.
func (o *Otter) ReadStats(st *Stats) {
	o.xo.ReadStats(st)
}

// Who identifies the solver.
func (o *Otter) Who() string {
	return o.xo.Who()
}
