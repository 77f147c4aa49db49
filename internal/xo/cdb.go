// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/teeaychem/otter-sat/z"
)

const (
	clsRescale    = 1e30
	clsRescaleInv = 1e-30
)

// Cdb is the clause database: the arena, the watch lists, and the
// bookkeeping for learnt clause activities and reduction.
//
// The empty clause and unit clauses are never stored.  Units are applied
// at level 0 (or at the assumption level for units derived under
// assumptions) and published as facts; the empty clause makes the
// database permanently inconsistent via Bot.
type Cdb struct {
	Vars  *Vars
	CDat  *CDat
	Trail *Trail

	// Watches[m] holds the clauses which must be revisited when m
	// becomes true, i.e. those with watched literal m.Not().
	Watches [][]Watch

	Added   []z.C
	Learnts []z.C

	// Bot records that the empty clause was added or derived.
	Bot bool

	Proof *Proof

	// GlueStrength is the lbd bound under which learnt clauses are
	// never reduced.
	GlueStrength uint32

	OnAddition func(ms []z.Lit)
	OnDeletion func(ms []z.Lit)
	OnFixed    func(m z.Lit)

	clsInc   float32
	clsDecay float32

	gc *Cgc

	addBuf []z.Lit
	marks  []int8

	stAdded      int64
	stLearnts    int64
	stDeleted    int64
	stReductions int64
}

func NewCdb(vars *Vars, capHint int) *Cdb {
	c := &Cdb{
		Vars:         vars,
		CDat:         NewCDat(capHint * 4),
		Watches:      make([][]Watch, 2*(vars.Top+1)),
		Added:        make([]z.C, 0, capHint),
		Learnts:      make([]z.C, 0, capHint),
		Proof:        NewProof(),
		GlueStrength: 3,
		clsInc:       1.0,
		clsDecay:     0.98,
		gc:           &Cgc{},
		addBuf:       make([]z.Lit, 0, 16),
		marks:        make([]int8, 2*(vars.Top+1))}
	return c
}

// Add builds a clause literal by literal; z.LitNull terminates.  On a
// complete clause Add returns the clause id and, when the clause reduces
// to a unit under the level 0 facts, the forced literal.  The returned
// id is z.CNull for units and dropped clauses and z.CInf for the empty
// clause.
func (c *Cdb) Add(m z.Lit) (z.C, z.Lit) {
	if m != z.LitNull {
		c.addBuf = append(c.addBuf, m)
		return z.CNull, z.LitNull
	}
	ms := c.addBuf
	c.addBuf = c.addBuf[:0]
	return c.flush(ms)
}

func (c *Cdb) flush(ms []z.Lit) (z.C, z.Lit) {
	// deduplicate and detect tautologies
	clean := ms[:0]
	taut := false
	for _, m := range ms {
		switch {
		case c.marks[m] == 1:
		case c.marks[m.Not()] == 1:
			taut = true
		default:
			c.marks[m] = 1
			clean = append(clean, m)
		}
	}
	for _, m := range clean {
		c.marks[m] = 0
	}
	if taut {
		logrus.Debugf("dropping tautological clause %v", ms)
		return z.CNull, z.LitNull
	}
	if len(clean) == 0 {
		c.Bot = true
		c.Proof.OriginalEmpty()
		return z.CInf, z.LitNull
	}
	id := c.Proof.Original(z.CNull, clean)
	c.stAdded++

	// simplify under the level 0 facts
	vals := c.Vars.Vals
	red := make([]z.Lit, 0, len(clean))
	var falseAnts []uint64
	for _, m := range clean {
		switch {
		case vals[m] == 1 && c.Vars.Levels[m.Var()] == 0:
			// satisfied outright; nothing to store
			if c.OnAddition != nil {
				c.OnAddition(clean)
			}
			return z.CNull, z.LitNull
		case vals[m] == -1 && c.Vars.Levels[m.Var()] == 0:
			falseAnts = append(falseAnts, c.Proof.UnitID(m.Var()))
		default:
			red = append(red, m)
		}
	}
	switch len(red) {
	case 0:
		c.Bot = true
		c.Proof.EmptyFrom(append([]uint64{id}, falseAnts...))
		return z.CInf, z.LitNull
	case 1:
		u := red[0]
		c.Proof.FixUnit(u, append([]uint64{id}, falseAnts...))
		c.Trail.Assign(u, z.CNull)
		if c.OnFixed != nil {
			c.OnFixed(u)
		}
		if c.OnAddition != nil {
			c.OnAddition(clean)
		}
		return z.CNull, u
	}
	p := c.store(MakeChd(false, 0, uint32(len(red))), red)
	c.Added = append(c.Added, p)
	c.Proof.Bind(p, id)
	if c.OnAddition != nil {
		c.OnAddition(clean)
	}
	return p, z.LitNull
}

// store appends a clause to the arena and attaches its watches on the
// first two literal positions.
func (c *Cdb) store(hd Chd, ms []z.Lit) z.C {
	p := c.CDat.AddLits(hd, ms)
	bin := len(ms) == 2
	c.Watches[ms[0].Not()] = append(c.Watches[ms[0].Not()], MakeWatch(p, ms[1], bin))
	c.Watches[ms[1].Not()] = append(c.Watches[ms[1].Not()], MakeWatch(p, ms[0], bin))
	return p
}

// Learn stores a learnt clause of at least 2 literals.  The caller
// orders ms by decision level, asserting literal first, so the watches
// land on the two highest levels.
func (c *Cdb) Learn(ms []z.Lit, lbd int) z.C {
	if len(ms) < 2 {
		panic("learn of short clause")
	}
	hd := MakeChd(true, uint32(lbd), uint32(len(ms)))
	if uint32(lbd) <= c.GlueStrength {
		hd = hd.SetGlue()
	}
	p := c.store(hd, ms)
	c.CDat.SetAct(p, c.clsInc)
	c.Learnts = append(c.Learnts, p)
	c.stLearnts++
	return p
}

// Replace stores ms as a new clause carrying old's source tag and, for
// learnt clauses, old's activity.  The caller deletes old afterwards.
func (c *Cdb) Replace(old z.C, ms []z.Lit, lbd int) z.C {
	if c.CDat.Chd(old).Learnt() {
		p := c.Learn(ms, lbd)
		c.CDat.SetAct(p, c.CDat.Act(old))
		return p
	}
	p := c.store(MakeChd(false, 0, uint32(len(ms))), ms)
	c.Added = append(c.Added, p)
	return p
}

// Lits appends the literals of clause p to ms.
func (c *Cdb) Lits(p z.C, ms []z.Lit) []z.Lit {
	return c.CDat.Load(p, ms)
}

func (c *Cdb) Chd(p z.C) Chd {
	return c.CDat.Chd(p)
}

func (c *Cdb) IsBinary(p z.C) bool {
	D := c.CDat.D
	return D[p] != z.LitNull && D[p+1] != z.LitNull && D[p+2] == z.LitNull
}

// Bump increases the activity of a learnt clause, rescaling all learnt
// activities at the threshold.
func (c *Cdb) Bump(p z.C) {
	hd := c.CDat.Chd(p)
	if !hd.Learnt() {
		return
	}
	a := c.CDat.Act(p) + c.clsInc
	c.CDat.SetAct(p, a)
	if a > clsRescale {
		for _, q := range c.Learnts {
			c.CDat.SetAct(q, c.CDat.Act(q)*clsRescaleInv)
		}
		c.clsInc *= clsRescaleInv
	}
}

// Decay ages all learnt clause activities.
func (c *Cdb) Decay() {
	c.clsInc /= c.clsDecay
}

// noteFixed publishes a literal forced at level 0 by clause r.
func (c *Cdb) noteFixed(m z.Lit, r z.C) {
	others := make([]z.Lit, 0, 8)
	others = c.Lits(r, others)
	ants := make([]uint64, 0, len(others))
	ants = append(ants, c.Proof.ID(r))
	for _, o := range others {
		if o == m {
			continue
		}
		ants = append(ants, c.Proof.UnitID(o.Var()))
	}
	c.Proof.FixUnit(m, ants)
	if c.OnFixed != nil {
		c.OnFixed(m)
	}
}

// Remove deletes clause p: watches are detached, a deletion event is
// published, and the slot is reclaimed at the next compaction.  The
// caller removes p from Added or Learnts.
func (c *Cdb) Remove(ps ...z.C) {
	ms := make([]z.Lit, 0, 16)
	for _, p := range ps {
		ms = ms[:0]
		ms = c.Lits(p, ms)
		c.detach(p, ms[0])
		c.detach(p, ms[1])
		c.CDat.SetChd(p, c.CDat.Chd(p).SetDeleted())
		c.gc.note(p, len(ms))
		c.Proof.Delete(p)
		if c.OnDeletion != nil {
			c.OnDeletion(ms)
		}
		c.stDeleted++
	}
}

func (c *Cdb) detach(p z.C, m z.Lit) {
	wl := c.Watches[m.Not()]
	j := 0
	for _, w := range wl {
		if w.C() == p {
			continue
		}
		wl[j] = w
		j++
	}
	c.Watches[m.Not()] = wl[:j]
}

// forget removes p from the Added or Learnts index.
func (c *Cdb) forget(p z.C) {
	ls := c.Learnts
	if !c.CDat.Chd(p).Learnt() {
		ls = c.Added
	}
	for i, q := range ls {
		if q == p {
			copy(ls[i:], ls[i+1:])
			ls = ls[:len(ls)-1]
			break
		}
	}
	if c.CDat.Chd(p).Learnt() {
		c.Learnts = ls
	} else {
		c.Added = ls
	}
}

// Reduce deletes roughly half of the learnt clauses.  Clauses of length
// at most 2, clauses within the glue bound, and clauses serving as
// reasons on the trail are kept.  The rest are ranked by activity
// ascending, ties by lbd descending, and the bottom half removed.
func (c *Cdb) Reduce() int {
	reasons := make(map[z.C]bool, c.Trail.Tail)
	for u := z.Var(1); u <= c.Vars.Max; u++ {
		if c.Vars.Levels[u] >= 0 && c.Vars.Reasons[u] != z.CNull {
			reasons[c.Vars.Reasons[u]] = true
		}
	}
	cands := make([]z.C, 0, len(c.Learnts))
	for _, p := range c.Learnts {
		hd := c.CDat.Chd(p)
		if hd.Glue() || c.IsBinary(p) || reasons[p] {
			continue
		}
		cands = append(cands, p)
	}
	dat := c.CDat
	sort.Slice(cands, func(i, j int) bool {
		pi, pj := cands[i], cands[j]
		ai, aj := dat.Act(pi), dat.Act(pj)
		if ai != aj {
			return ai < aj
		}
		li, lj := dat.Chd(pi).Lbd(), dat.Chd(pj).Lbd()
		if li != lj {
			return li > lj
		}
		return pi < pj
	})
	n := len(cands) / 2
	if n == 0 {
		return 0
	}
	rm := cands[:n]
	rmSet := make(map[z.C]bool, n)
	for _, p := range rm {
		rmSet[p] = true
	}
	c.Remove(rm...)
	ls := c.Learnts[:0]
	for _, p := range c.Learnts {
		if !rmSet[p] {
			ls = append(ls, p)
		}
	}
	c.Learnts = ls
	c.stReductions++
	return n
}

// MaybeCompact compacts the arena when enough garbage has accumulated,
// remapping watches, reasons, the clause indices, and the proof
// emitter's live ids.  It returns the number of words reclaimed and
// whether a compaction took place.
func (c *Cdb) MaybeCompact() (int, bool) {
	if c.gc.words == 0 || c.gc.words*3 < c.CDat.Len() {
		return 0, false
	}
	return c.Compact()
}

// Compact unconditionally compacts the arena if there are removed
// clauses.
func (c *Cdb) Compact() (int, bool) {
	if len(c.gc.rms) == 0 {
		return 0, false
	}
	relo, freed := c.CDat.Compact(c.gc.rms)
	for m := range c.Watches {
		wl := c.Watches[m]
		for i, w := range wl {
			q, ok := relo[w.C()]
			if !ok || q == z.CNull {
				panic(fmt.Sprintf("watch on removed clause %s", w.C()))
			}
			wl[i] = w.Relocate(q)
		}
	}
	for u := z.Var(1); u <= c.Vars.Max; u++ {
		r := c.Vars.Reasons[u]
		if r == z.CNull {
			continue
		}
		q, ok := relo[r]
		if !ok || q == z.CNull {
			panic(fmt.Sprintf("reason on removed clause %s", r))
		}
		c.Vars.Reasons[u] = q
	}
	for i, p := range c.Added {
		c.Added[i] = relo[p]
	}
	for i, p := range c.Learnts {
		c.Learnts[i] = relo[p]
	}
	c.Proof.Remap(relo)
	c.gc.reset()
	return freed, true
}

// CheckWatches verifies the watch invariants; for use in tests and
// debugging at quiescent states.
func (c *Cdb) CheckWatches() []error {
	var errs []error
	ms := make([]z.Lit, 0, 16)
	check := func(p z.C) {
		ms = ms[:0]
		ms = c.Lits(p, ms)
		if len(ms) < 2 {
			errs = append(errs, fmt.Errorf("%s: stored clause of %d literals", p, len(ms)))
			return
		}
		for i := 0; i < 2; i++ {
			found := 0
			for _, w := range c.Watches[ms[i].Not()] {
				if w.C() == p {
					found++
				}
			}
			if found != 1 {
				errs = append(errs, fmt.Errorf("%s: watch index has %d entries for %s", p, found, ms[i]))
			}
		}
		sat, unassigned := false, 0
		for _, m := range ms {
			if c.Vars.Vals[m] == 1 {
				sat = true
			}
		}
		for i := 0; i < 2; i++ {
			if c.Vars.Vals[ms[i]] == 0 {
				unassigned++
			}
		}
		falsified := true
		for _, m := range ms {
			if c.Vars.Vals[m] != -1 {
				falsified = false
			}
		}
		if !sat && !falsified && unassigned == 0 {
			errs = append(errs, fmt.Errorf("%s: no unassigned watch in open clause", p))
		}
	}
	for _, p := range c.Added {
		check(p)
	}
	for _, p := range c.Learnts {
		check(p)
	}
	return errs
}

// CheckModel verifies that every added clause is satisfied under the
// current valuation.
func (c *Cdb) CheckModel() []error {
	var errs []error
	if c.Bot {
		errs = append(errs, fmt.Errorf("model of inconsistent database"))
	}
	ms := make([]z.Lit, 0, 16)
	for _, p := range c.Added {
		ms = ms[:0]
		ms = c.Lits(p, ms)
		sat := false
		for _, m := range ms {
			if c.Vars.Vals[m] == 1 {
				sat = true
				break
			}
		}
		if !sat {
			errs = append(errs, fmt.Errorf("unsatisfied clause %s %v", p, ms))
		}
	}
	return errs
}

// Forall calls f on every live stored clause.
func (c *Cdb) Forall(f func(p z.C, hd Chd, ms []z.Lit)) {
	c.CDat.Forall(func(p z.C, hd Chd, ms []z.Lit) {
		if hd.Deleted() {
			return
		}
		f(p, hd, ms)
	})
}

// Write writes the stored database in DIMACS form.
func (c *Cdb) Write(w io.Writer) {
	fmt.Fprintf(w, "p cnf %d %d\n", uint32(c.Vars.Max), len(c.Added))
	ms := make([]z.Lit, 0, 16)
	for _, p := range c.Added {
		ms = ms[:0]
		ms = c.Lits(p, ms)
		for _, m := range ms {
			fmt.Fprintf(w, "%d ", m.Dimacs())
		}
		fmt.Fprintf(w, "0\n")
	}
}

func (c *Cdb) growToVar(u z.Var) {
	w := 2 * (u + 1)
	ws := make([][]Watch, w)
	copy(ws, c.Watches)
	c.Watches = ws

	marks := make([]int8, w)
	copy(marks, c.marks)
	c.marks = marks
}

func (c *Cdb) readStats(st *Stats) {
	st.Added += c.stAdded
	c.stAdded = 0
	st.Learnts += c.stLearnts
	c.stLearnts = 0
	st.Deleted += c.stDeleted
	c.stDeleted = 0
	st.Reductions += c.stReductions
	c.stReductions = 0
}

// Cgc tracks removed clauses between compactions.
type Cgc struct {
	rms   []z.C
	words int
}

func (g *Cgc) note(p z.C, size int) {
	g.rms = append(g.rms, p)
	g.words = g.words + size + cdatHdLen + 1
}

func (g *Cgc) reset() {
	g.rms = g.rms[:0]
	g.words = 0
}
