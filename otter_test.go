// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package otter

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teeaychem/otter-sat/gen"
	"github.com/teeaychem/otter-sat/inter"
	"github.com/teeaychem/otter-sat/z"
)

var _ inter.S = &Otter{}

func addAll(o *Otter, cs [][]int) {
	for _, c := range cs {
		ms := make([]z.Lit, len(c))
		for i, d := range c {
			ms[i] = z.Dimacs2Lit(d)
		}
		o.AddClause(ms...)
	}
}

func satisfies(valuation map[int]bool, cs [][]int) bool {
	for _, c := range cs {
		sat := false
		for _, d := range c {
			v := valuation[abs(d)]
			if (d > 0) == v {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

func abs(d int) int {
	if d < 0 {
		return -d
	}
	return d
}

// bruteForce decides satisfiability over atoms 1..n by enumeration.
func bruteForce(cs [][]int, n int) bool {
	val := map[int]bool{}
	for bits := 0; bits < 1<<n; bits++ {
		for i := 1; i <= n; i++ {
			val[i] = bits&(1<<(i-1)) != 0
		}
		if satisfies(val, cs) {
			return true
		}
	}
	return false
}

func randCnf(rnd *rand.Rand, nVars, nClauses int) [][]int {
	cs := make([][]int, 0, nClauses)
	for i := 0; i < nClauses; i++ {
		c := make([]int, 3)
		for j := range c {
			d := rnd.Intn(nVars) + 1
			if rnd.Intn(2) == 1 {
				d = -d
			}
			c[j] = d
		}
		cs = append(cs, c)
	}
	return cs
}

func TestContradictionByPropagation(t *testing.T) {
	o := New()
	cs := [][]int{{1, 2}, {-1, 2}, {-1, -2}, {1, -2}}
	addAll(o, cs)
	require.Equal(t, -1, o.Solve())
	core := o.Core()
	assert.Len(t, core, 4)
	// the context is terminally unsat
	o.Refresh()
	assert.Equal(t, -1, o.Solve())
}

func TestUnitPropagationChain(t *testing.T) {
	o := New()
	addAll(o, [][]int{{1}, {-1, 2}, {-2, 3}, {-3, 4}})
	require.Equal(t, 1, o.Solve())
	for d := 1; d <= 4; d++ {
		assert.True(t, o.Value(z.Dimacs2Lit(d)), "atom %d", d)
	}
	st := NewStats()
	o.ReadStats(st)
	assert.Zero(t, st.Guesses, "level 0 propagation only")
}

func TestPureLiteralPreprocessing(t *testing.T) {
	cfg := NewConfig()
	cfg.Preprocess = true
	o := NewWith(cfg)
	fixed := []z.Lit{}
	o.SetFixedCallback(func(m z.Lit) {
		fixed = append(fixed, m)
	})
	addAll(o, [][]int{{1, 2, 3}, {1, -2, 4}, {1, 3, 4}})
	require.Equal(t, 1, o.Solve())
	assert.True(t, o.Value(z.Dimacs2Lit(1)))
	assert.Contains(t, fixed, z.Dimacs2Lit(1))
}

func TestModelCorrectness(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	for i := 0; i < 50; i++ {
		cs := randCnf(rnd, 20, 60)
		o := New()
		addAll(o, cs)
		if o.Solve() != 1 {
			continue
		}
		val := map[int]bool{}
		for u := z.Var(1); u <= o.MaxVar(); u++ {
			val[int(u)] = o.Value(u.Pos())
		}
		assert.True(t, satisfies(val, cs), "model violates %v", cs)
	}
}

func TestUnsatSoundness(t *testing.T) {
	rnd := rand.New(rand.NewSource(23))
	for i := 0; i < 40; i++ {
		n := 8
		cs := randCnf(rnd, n, 40)
		o := New()
		addAll(o, cs)
		res := o.Solve()
		want := 1
		if !bruteForce(cs, n) {
			want = -1
		}
		require.Equal(t, want, res, "instance %v", cs)
	}
}

func TestAssumptionSoundness(t *testing.T) {
	o := New()
	gen.Color(o, gen.Clique(4), 3)
	// a 3-coloring of K4 does not exist, with or without assumptions
	o.Assume(gen.ColorVar(0, 0, 3))
	require.Equal(t, -1, o.Solve())
	failed := o.Why(nil)
	assert.Subset(t, []z.Lit{gen.ColorVar(0, 0, 3)}, failed)

	// the failed assumptions are unsat against the formula itself
	o2 := New()
	gen.Color(o2, gen.Clique(4), 3)
	for _, m := range failed {
		o2.AddClause(m)
	}
	assert.Equal(t, -1, o2.Solve())

	o.Refresh()
	assert.Equal(t, -1, o.Solve())
}

func TestFailed(t *testing.T) {
	o := New()
	addAll(o, [][]int{{-1, -2}})
	o.Assume(z.Dimacs2Lit(1), z.Dimacs2Lit(2))
	require.Equal(t, -1, o.Solve())
	assert.True(t, o.Failed(z.Dimacs2Lit(1)) || o.Failed(z.Dimacs2Lit(2)))
	assert.False(t, o.Failed(z.Dimacs2Lit(3)))
}

func TestDeterminism(t *testing.T) {
	run := func() ([]z.Lit, int64, []Event) {
		cfg := NewConfig()
		cfg.Seed = 3
		o := NewWith(cfg)
		evs := []Event{}
		o.SetEventHandler(func(ev Event) { evs = append(evs, ev) })
		gen.Seed(71)
		gen.Rand3Cnf(o, 150, 600)
		o.Solve()
		st := NewStats()
		o.ReadStats(st)
		return o.Valuation(nil), st.Conflicts, evs
	}
	v1, c1, e1 := run()
	v2, c2, e2 := run()
	if diff := cmp.Diff(v1, v2); diff != "" {
		t.Errorf("valuations differ: %s", diff)
	}
	assert.Equal(t, c1, c2, "conflict counts differ")
	if diff := cmp.Diff(e1, e2); diff != "" {
		t.Errorf("event streams differ: %s", diff)
	}
}

func TestModelEnumeration(t *testing.T) {
	o := New()
	n := 4
	atoms := make([]z.Lit, n)
	for i := range atoms {
		atoms[i] = o.Lit()
	}
	// a tautological formula over n atoms has 2^n models
	models := 0
	for o.Solve() == 1 {
		models++
		require.LessOrEqual(t, models, 1<<n, "enumeration does not terminate")
		block := make([]z.Lit, n)
		for i, m := range atoms {
			if o.Value(m) {
				block[i] = m.Not()
			} else {
				block[i] = m
			}
		}
		o.AddClause(block...)
	}
	assert.Equal(t, 1<<n, models)
}

func TestRefreshIdempotence(t *testing.T) {
	o := New()
	gen.Php(o, 5, 5)
	require.Equal(t, 1, o.Solve())
	o.Refresh()
	o.Refresh()
	assert.Equal(t, 1, o.Solve())
}

func TestLearnCallback(t *testing.T) {
	o := New()
	learnt := 0
	o.SetLearnCallback(func(ms []z.Lit) {
		learnt++
		assert.NotEmpty(t, ms)
	})
	gen.Php(o, 5, 4)
	require.Equal(t, -1, o.Solve())
	assert.Greater(t, learnt, 0)
}

func TestFreshAtomExhaustion(t *testing.T) {
	o := New()
	u, err := o.FreshAtom()
	require.NoError(t, err)
	assert.Equal(t, z.Var(1), u)
}

func TestDimacsRoundTrip(t *testing.T) {
	o, err := NewDimacs(strings.NewReader("p cnf 2 2\n1 2 0\n-1 2 0\n"))
	require.NoError(t, err)
	require.Equal(t, 1, o.Solve())
	assert.True(t, o.Value(z.Dimacs2Lit(2)))
}
