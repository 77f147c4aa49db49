// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"bytes"
	"fmt"

	"github.com/teeaychem/otter-sat/z"
)

// Trail is the assignment stack together with the propagation queue.
// Entries between head and Tail are assigned but not yet propagated.
type Trail struct {
	Cdb   *Cdb
	Guess *Guess

	D     []z.Lit
	Tail  int
	Level int

	head   int
	levels []int // levels[i] is the index in D where level i starts

	Props int64
}

func NewTrail(cdb *Cdb, guess *Guess) *Trail {
	t := &Trail{
		Cdb:    cdb,
		Guess:  guess,
		D:      make([]z.Lit, 0, cdb.Vars.Top),
		levels: make([]int, 1, 128)}
	cdb.Trail = t
	return t
}

// Assign makes m true at the current level with reason r.  The caller
// must ensure m's atom is unassigned.  Level 0 assignments are facts;
// those with a clause reason are published as fixed units.
func (t *Trail) Assign(m z.Lit, r z.C) {
	vars := t.Cdb.Vars
	u := m.Var()
	if vars.Vals[m] != 0 {
		panic(fmt.Sprintf("assign of valued literal %s", m))
	}
	vars.Set(m)
	vars.Levels[u] = int32(t.Level)
	vars.Reasons[u] = r
	if t.Level == 0 {
		vars.Facts[u] = true
		if r != z.CNull {
			t.Cdb.noteFixed(m, r)
		}
	}
	t.D = append(t.D[:t.Tail], m)
	t.Tail++
}

// AssignFact makes m true at the current level as a consequence of the
// formula alone (a derived unit applied while assumptions are active).
func (t *Trail) AssignFact(m z.Lit) {
	t.Assign(m, z.CNull)
	t.Cdb.Vars.Facts[m.Var()] = true
}

// Decide opens a new level and makes m true as a decision or assumption.
func (t *Trail) Decide(m z.Lit) {
	t.Level++
	t.levels = append(t.levels, t.Tail)
	t.Assign(m, z.CNull)
}

// Prop drains the propagation queue.  It returns the id of a falsified
// clause, or z.CNull if the trail is quiescent.  Propagation order is
// watch-list order and deterministic.
func (t *Trail) Prop() z.C {
	vals := t.Cdb.Vars.Vals
	for t.head < t.Tail {
		m := t.D[t.head]
		t.head++
		t.Props++
		if x := t.propLit(m, vals); x != z.CNull {
			t.head = t.Tail
			return x
		}
	}
	return z.CNull
}

func (t *Trail) propLit(m z.Lit, vals []int8) z.C {
	D := t.Cdb.CDat.D
	wl := t.Cdb.Watches[m]
	fl := m.Not()
	i, j, n := 0, 0, len(wl)
	var x z.C
	for i < n {
		w := wl[i]
		o := w.Other()
		if vals[o] == 1 {
			wl[j] = w
			i++
			j++
			continue
		}
		if w.IsBinary() {
			if vals[o] == -1 {
				x = w.C()
				break
			}
			t.Assign(o, w.C())
			wl[j] = w
			i++
			j++
			continue
		}
		p := w.C()
		if D[p+1] != fl {
			D[p], D[p+1] = D[p+1], D[p]
		}
		first := D[p]
		if first != o && vals[first] == 1 {
			wl[j] = MakeWatch(p, first, false)
			i++
			j++
			continue
		}
		q := p + 2
		for D[q] != z.LitNull && vals[D[q]] == -1 {
			q++
		}
		if D[q] != z.LitNull {
			D[p+1], D[q] = D[q], D[p+1]
			nw := D[p+1]
			t.Cdb.Watches[nw.Not()] = append(t.Cdb.Watches[nw.Not()], MakeWatch(p, first, false))
			i++
			continue
		}
		if vals[first] == -1 {
			x = p
			break
		}
		t.Assign(first, p)
		wl[j] = MakeWatch(p, first, false)
		i++
		j++
	}
	if x != z.CNull {
		for i < n {
			wl[j] = wl[i]
			i++
			j++
		}
	}
	t.Cdb.Watches[m] = wl[:j]
	return x
}

// Back pops all trail entries above level k, saving phases and
// re-inserting the freed atoms into the heuristic.
func (t *Trail) Back(k int) {
	if k >= t.Level {
		return
	}
	vars := t.Cdb.Vars
	cut := t.levels[k+1]
	for i := t.Tail - 1; i >= cut; i-- {
		m := t.D[i]
		u := m.Var()
		t.Guess.SavePhase(u, vars.Vals[u.Pos()])
		vars.Unset(m)
		t.Guess.Push(u.Pos())
	}
	t.D = t.D[:cut]
	t.Tail = cut
	if t.head > cut {
		t.head = cut
	}
	t.levels = t.levels[:k+1]
	t.Level = k
}

// LevelStart returns the trail index at which level k begins.
func (t *Trail) LevelStart(k int) int {
	return t.levels[k]
}

func (t *Trail) growToVar(u z.Var) {}

func (t *Trail) readStats(st *Stats) {
	st.Props += t.Props
	t.Props = 0
}

func (t *Trail) String() string {
	buf := bytes.NewBuffer(nil)
	vars := t.Cdb.Vars
	fmt.Fprintf(buf, "Trail@%d{", t.Level)
	for i := 0; i < t.Tail; i++ {
		m := t.D[i]
		fmt.Fprintf(buf, " %s@%d", m, vars.Levels[m.Var()])
	}
	buf.WriteString(" }")
	return buf.String()
}
