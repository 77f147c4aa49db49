// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"fmt"

	"github.com/teeaychem/otter-sat/z"
)

// StoppingCriteria selects when resolution stops during conflict
// analysis.
type StoppingCriteria int

const (
	// FirstUIP stops at the first unique implication point.
	FirstUIP StoppingCriteria = iota
	// NoStopping resolves against every reason, yielding a clause of
	// negated decisions.
	NoStopping
)

func (s StoppingCriteria) String() string {
	switch s {
	case FirstUIP:
		return "FirstUIP"
	case NoStopping:
		return "None"
	default:
		return fmt.Sprintf("StoppingCriteria(%d)", int(s))
	}
}

// VsidsVariant selects which atoms are bumped during analysis.
type VsidsVariant int

const (
	// VsidsMiniSAT bumps every atom of the learnt clause.
	VsidsMiniSAT VsidsVariant = iota
	// VsidsChaff bumps every atom whose reason was resolved against.
	VsidsChaff
)

func (v VsidsVariant) String() string {
	switch v {
	case VsidsMiniSAT:
		return "MiniSAT"
	case VsidsChaff:
		return "Chaff"
	default:
		return fmt.Sprintf("VsidsVariant(%d)", int(v))
	}
}

// Derived is the result of conflict analysis: the asserting literal, the
// stored learnt clause (z.CNull when the clause is unit), the level to
// backjump to, and the clause's lbd.
type Derived struct {
	Unit        z.Lit
	P           z.C
	TargetLevel int
	Lbd         int
	Lits        []z.Lit
}

type subsumption struct {
	old  z.C
	ms   []z.Lit
	lbd  int
	ants []uint64
}

// Deriver performs resolution based conflict analysis: 1UIP (or
// exhaustive) resolution, recursive minimization, lbd scoring, activity
// bumps, and on-the-fly self-subsumption.
type Deriver struct {
	cdb   *Cdb
	guess *Guess
	trail *Trail

	Stopping      StoppingCriteria
	Vsids         VsidsVariant
	NoSubsumption bool

	seen    []bool
	clear   []z.Var
	lits    []z.Lit
	dPend   []z.Lit
	ants    []uint64
	counter int

	minStack []z.Lit
	lvlStamp []uint32
	stamp    uint32

	subsumed []subsumption

	stLearntLen int64
}

func NewDeriver(cdb *Cdb, guess *Guess, trail *Trail) *Deriver {
	return &Deriver{
		cdb:      cdb,
		guess:    guess,
		trail:    trail,
		seen:     make([]bool, cdb.Vars.Top+1),
		clear:    make([]z.Var, 0, 128),
		lits:     make([]z.Lit, 0, 128),
		dPend:    make([]z.Lit, 0, 128),
		ants:     make([]uint64, 0, 128),
		minStack: make([]z.Lit, 0, 128),
		lvlStamp: make([]uint32, 0, 128)}
}

// Derive analyses the conflict clause x at the current level and learns
// an asserting clause.  The caller backjumps to the returned level,
// applies staged subsumptions, and enqueues the asserting literal.
func (dv *Deriver) Derive(x z.C) *Derived {
	d := dv.trail.Level
	if d == 0 {
		panic("analysis of root level conflict")
	}
	dv.reset()

	dv.merge(x, z.VarNull, d)
	dv.ants = append(dv.ants, dv.cdb.Proof.ID(x))
	dv.cdb.Bump(x)

	var asserting z.Lit
	if dv.Stopping == FirstUIP {
		asserting = dv.resolve1UIP(d)
	} else {
		asserting = dv.resolveAll(d)
	}

	if dv.Stopping == FirstUIP && len(dv.lits) > 0 {
		dv.minimize()
	}
	if dv.Vsids == VsidsMiniSAT {
		dv.guess.Bump(asserting)
		for _, m := range dv.lits {
			dv.guess.Bump(m)
		}
	}

	dv.sortByLevel(dv.lits)
	lbd := dv.lbd(asserting, dv.lits)

	res := &Derived{Unit: asserting, Lbd: lbd}
	if len(dv.lits) == 0 {
		res.P = z.CNull
		res.TargetLevel = 0
		res.Lits = []z.Lit{asserting}
		dv.cdb.Proof.LearnUnit(asserting, dv.ants)
		dv.stLearntLen++
		return res
	}
	ms := make([]z.Lit, 0, len(dv.lits)+1)
	ms = append(ms, asserting)
	ms = append(ms, dv.lits...)
	res.P = dv.cdb.Learn(ms, lbd)
	res.TargetLevel = int(dv.cdb.Vars.Levels[ms[1].Var()])
	res.Lits = ms
	dv.cdb.Proof.Learn(res.P, ms, dv.ants)
	dv.stLearntLen += int64(len(ms))
	return res
}

// resolve1UIP walks the trail backwards resolving level d literals until
// a single one remains; its negation is the asserting literal.
func (dv *Deriver) resolve1UIP(d int) z.Lit {
	trail := dv.trail
	vars := dv.cdb.Vars
	i := trail.Tail - 1
	for dv.counter > 1 {
		for !dv.seen[trail.D[i].Var()] || int(vars.Levels[trail.D[i].Var()]) != d {
			i--
		}
		t := trail.D[i]
		i--
		dv.resolveStep(t, d)
	}
	for !dv.seen[trail.D[i].Var()] || int(vars.Levels[trail.D[i].Var()]) != d {
		i--
	}
	return trail.D[i].Not()
}

// resolveAll resolves against every reason at every level, leaving only
// negated decisions (and assumptions).
func (dv *Deriver) resolveAll(d int) z.Lit {
	trail := dv.trail
	vars := dv.cdb.Vars
	for i := trail.Tail - 1; i >= 0; i-- {
		t := trail.D[i]
		v := t.Var()
		if !dv.seen[v] || vars.Facts[v] || vars.Reasons[v] == z.CNull {
			continue
		}
		dv.resolveStep(t, d)
	}
	if len(dv.dPend) > 1 {
		panic(fmt.Sprintf("exhaustive resolution left %d conflict level literals", len(dv.dPend)))
	}
	if len(dv.dPend) == 1 {
		// the remaining conflict level literal is the negated decision
		asserting := dv.dPend[0]
		dv.dPend = dv.dPend[:0]
		dv.counter = 0
		return asserting
	}
	// every conflict level literal was implied below the conflict level;
	// assert the highest remaining literal instead
	if len(dv.lits) == 0 {
		panic("exhaustive resolution produced the empty clause above the root")
	}
	dv.counter = 0
	dv.sortByLevel(dv.lits)
	asserting := dv.lits[0]
	dv.lits = dv.lits[1:]
	return asserting
}

// resolveStep resolves the working clause against the reason of trail
// literal t.
func (dv *Deriver) resolveStep(t z.Lit, d int) {
	vars := dv.cdb.Vars
	v := t.Var()
	r := vars.Reasons[v]
	if r == z.CNull {
		panic(fmt.Sprintf("resolution against decision %s", t))
	}
	if int(vars.Levels[v]) == d {
		dv.counter--
		dv.dropPend(t.Not())
	} else {
		dv.dropLit(t.Not())
	}
	dv.merge(r, v, d)
	dv.ants = append(dv.ants, dv.cdb.Proof.ID(r))
	dv.cdb.Bump(r)
	if dv.Vsids == VsidsChaff {
		dv.guess.Bump(t)
	}
	if !dv.NoSubsumption && int(vars.Levels[v]) == d {
		// the resolvent holds every literal of r except the pivot and
		// the facts, so it is a strict subset of r exactly when it is
		// no larger than that remainder
		rest := -1
		D := dv.cdb.CDat.D
		for q := r; D[q] != z.LitNull; q++ {
			if !vars.Facts[D[q].Var()] {
				rest++
			}
		}
		if cur := dv.counter + len(dv.lits); cur <= rest {
			dv.stageSubsume(r)
		}
	}
}

// merge unions the literals of clause p into the working sets, skipping
// atom skip and resolving facts away against their unit derivations.
func (dv *Deriver) merge(p z.C, skip z.Var, d int) {
	D := dv.cdb.CDat.D
	vars := dv.cdb.Vars
	for q := p; D[q] != z.LitNull; q++ {
		m := D[q]
		v := m.Var()
		if v == skip || dv.seen[v] {
			continue
		}
		dv.seen[v] = true
		dv.clear = append(dv.clear, v)
		if vars.Facts[v] {
			dv.ants = append(dv.ants, dv.cdb.Proof.UnitID(v))
			continue
		}
		if int(vars.Levels[v]) == d {
			dv.counter++
			dv.dPend = append(dv.dPend, m)
		} else {
			dv.lits = append(dv.lits, m)
		}
	}
}

func (dv *Deriver) dropPend(m z.Lit) {
	for i, o := range dv.dPend {
		if o == m {
			dv.dPend[i] = dv.dPend[len(dv.dPend)-1]
			dv.dPend = dv.dPend[:len(dv.dPend)-1]
			return
		}
	}
	panic(fmt.Sprintf("pivot %s not pending", m))
}

func (dv *Deriver) dropLit(m z.Lit) {
	for i, o := range dv.lits {
		if o == m {
			dv.lits[i] = dv.lits[len(dv.lits)-1]
			dv.lits = dv.lits[:len(dv.lits)-1]
			return
		}
	}
	panic(fmt.Sprintf("pivot %s not in working clause", m))
}

// minimize removes literals whose reason chains stay within the learnt
// clause, recursively.  A chain reaching a decision blocks removal.
func (dv *Deriver) minimize() {
	j := 0
	for _, m := range dv.lits {
		if !dv.litRedundant(m) {
			dv.lits[j] = m
			j++
		}
	}
	dv.lits = dv.lits[:j]
}

func (dv *Deriver) litRedundant(m z.Lit) bool {
	vars := dv.cdb.Vars
	if vars.Reasons[m.Var()] == z.CNull {
		return false
	}
	D := dv.cdb.CDat.D
	top := len(dv.clear)
	stack := dv.minStack[:0]
	stack = append(stack, m)
	var local []uint64
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r := vars.Reasons[t.Var()]
		local = append(local, dv.cdb.Proof.ID(r))
		for q := r; D[q] != z.LitNull; q++ {
			o := D[q]
			v := o.Var()
			if v == t.Var() || dv.seen[v] {
				continue
			}
			if vars.Facts[v] {
				dv.seen[v] = true
				dv.clear = append(dv.clear, v)
				local = append(local, dv.cdb.Proof.UnitID(v))
				continue
			}
			if vars.Reasons[v] == z.CNull {
				for _, u := range dv.clear[top:] {
					dv.seen[u] = false
				}
				dv.clear = dv.clear[:top]
				dv.minStack = stack[:0]
				return false
			}
			dv.seen[v] = true
			dv.clear = append(dv.clear, v)
			stack = append(stack, o)
		}
	}
	dv.minStack = stack[:0]
	dv.ants = append(dv.ants, local...)
	return true
}

// lbd counts the distinct decision levels among the literals.
func (dv *Deriver) lbd(asserting z.Lit, ms []z.Lit) int {
	vars := dv.cdb.Vars
	dv.stamp++
	for len(dv.lvlStamp) <= dv.trail.Level {
		dv.lvlStamp = append(dv.lvlStamp, 0)
	}
	n := 0
	mark := func(m z.Lit) {
		l := vars.Levels[m.Var()]
		if l < 0 {
			return
		}
		if dv.lvlStamp[l] != dv.stamp {
			dv.lvlStamp[l] = dv.stamp
			n++
		}
	}
	mark(asserting)
	for _, m := range ms {
		mark(m)
	}
	return n
}

func (dv *Deriver) sortByLevel(ms []z.Lit) {
	vars := dv.cdb.Vars
	// insertion sort: learnt clauses are usually short
	for i := 1; i < len(ms); i++ {
		m := ms[i]
		l := vars.Levels[m.Var()]
		j := i - 1
		for j >= 0 && vars.Levels[ms[j].Var()] < l {
			ms[j+1] = ms[j]
			j--
		}
		ms[j+1] = m
	}
}

func (dv *Deriver) stageSubsume(r z.C) {
	ms := make([]z.Lit, 0, len(dv.dPend)+len(dv.lits))
	ms = append(ms, dv.dPend...)
	ms = append(ms, dv.lits...)
	dv.sortByLevel(ms)
	ants := make([]uint64, len(dv.ants))
	copy(ants, dv.ants)
	dv.subsumed = append(dv.subsumed, subsumption{
		old:  r,
		ms:   ms,
		lbd:  dv.lbd(ms[0], ms[1:]),
		ants: ants})
}

// ApplySubsumptions replaces clauses strengthened during the last
// analysis.  It runs after the backjump so the old clauses are no longer
// reasons; a replacement asserting under the restored valuation is
// enqueued.
func (dv *Deriver) ApplySubsumptions() {
	vals := dv.cdb.Vars.Vals
	for i := range dv.subsumed {
		sub := &dv.subsumed[i]
		if len(sub.ms) == 1 {
			u := sub.ms[0]
			dv.cdb.Proof.LearnUnit(u, sub.ants)
			dv.cdb.forget(sub.old)
			dv.cdb.Remove(sub.old)
			if vals[u] == 0 {
				dv.trail.AssignFact(u)
			}
		} else {
			p := dv.cdb.Replace(sub.old, sub.ms, sub.lbd)
			dv.cdb.Proof.Learn(p, sub.ms, sub.ants)
			dv.cdb.forget(sub.old)
			dv.cdb.Remove(sub.old)
			if vals[sub.ms[0]] == 0 && vals[sub.ms[1]] == -1 {
				dv.trail.Assign(sub.ms[0], p)
			}
		}
		sub.ms = nil
		sub.ants = nil
	}
	dv.subsumed = dv.subsumed[:0]
}

func (dv *Deriver) reset() {
	for _, v := range dv.clear {
		dv.seen[v] = false
	}
	dv.clear = dv.clear[:0]
	dv.lits = dv.lits[:0]
	dv.dPend = dv.dPend[:0]
	dv.ants = dv.ants[:0]
	dv.counter = 0
}

func (dv *Deriver) growToVar(u z.Var) {
	seen := make([]bool, u+1)
	copy(seen, dv.seen)
	dv.seen = seen
}

func (dv *Deriver) readStats(st *Stats) {
	st.LearntLits += dv.stLearntLen
	dv.stLearntLen = 0
}

func (dv *Deriver) String() string {
	return fmt.Sprintf("Deriver{stopping: %s, vsids: %s}", dv.Stopping, dv.Vsids)
}
