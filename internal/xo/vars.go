// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"bytes"
	"fmt"

	"github.com/teeaychem/otter-sat/z"
)

// Vars holds the current partial valuation and the per-atom trail
// attributes: decision level, antecedent reason, and whether the atom is
// a globally derived fact rather than a decision or assumption.
type Vars struct {
	Max z.Var // maximum atom in use
	Top z.Var // capacity

	// Vals is indexed by literal: 1 true, -1 false, 0 unassigned.
	Vals []int8

	// Levels is indexed by atom; -1 when the atom is unassigned.
	Levels []int32

	// Reasons is indexed by atom.  z.CNull marks a decision, an
	// assumption, or a fact (see Facts).
	Reasons []z.C

	// Facts marks atoms whose value is implied by the formula alone:
	// original or derived unit clauses and eliminated pure literals.
	Facts []bool
}

func NewVars(capHint int) *Vars {
	if capHint < 2 {
		capHint = 2
	}
	top := z.Var(capHint)
	v := &Vars{
		Max:     z.VarNull,
		Top:     top,
		Vals:    make([]int8, 2*(top+1)),
		Levels:  make([]int32, top+1),
		Reasons: make([]z.C, top+1),
		Facts:   make([]bool, top+1)}
	for i := range v.Levels {
		v.Levels[i] = -1
	}
	return v
}

// Set makes m true.
func (v *Vars) Set(m z.Lit) {
	v.Vals[m] = 1
	v.Vals[m.Not()] = -1
}

// Unset clears the value of m's atom.
func (v *Vars) Unset(m z.Lit) {
	u := m.Var()
	v.Vals[u.Pos()] = 0
	v.Vals[u.Neg()] = 0
	v.Levels[u] = -1
	v.Reasons[u] = z.CNull
	v.Facts[u] = false
}

// Sign returns 1 if m is true, -1 if false, 0 if unassigned.
func (v *Vars) Sign(m z.Lit) int8 {
	return v.Vals[m]
}

// Level returns the decision level of atom u, -1 if unassigned.
func (v *Vars) Level(u z.Var) int32 {
	return v.Levels[u]
}

func (v *Vars) growToVar(u z.Var) {
	w := u + 1
	vals := make([]int8, 2*w)
	copy(vals, v.Vals)
	v.Vals = vals

	levels := make([]int32, w)
	copy(levels, v.Levels)
	for i := v.Top + 1; i < w; i++ {
		levels[i] = -1
	}
	v.Levels = levels

	reasons := make([]z.C, w)
	copy(reasons, v.Reasons)
	v.Reasons = reasons

	facts := make([]bool, w)
	copy(facts, v.Facts)
	v.Facts = facts

	v.Top = u
}

func (v *Vars) String() string {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("Vars{")
	for u := z.Var(1); u <= v.Max; u++ {
		switch v.Vals[u.Pos()] {
		case 1:
			fmt.Fprintf(buf, " %s@%d", u.Pos(), v.Levels[u])
		case -1:
			fmt.Fprintf(buf, " %s@%d", u.Neg(), v.Levels[u])
		}
	}
	buf.WriteString(" }")
	return buf.String()
}
