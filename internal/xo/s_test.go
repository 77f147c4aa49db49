// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"math/rand"
	"testing"
	"time"

	"github.com/teeaychem/otter-sat/gen"
	"github.com/teeaychem/otter-sat/z"
)

func TestSRand3Cnf(t *testing.T) {
	s := NewS()
	gen.Rand3Cnf(s, 300, 1206)
	r := s.Solve()
	if r == 1 {
		if errs := s.Cdb.CheckModel(); len(errs) != 0 {
			t.Errorf("bad model: %v", errs)
		}
	}
}

func TestSPhp(t *testing.T) {
	for p := 4; p < 8; p++ {
		for _, d := range [...]int{-2, -1, 0, 1, 2} {
			h := p + d
			s := NewS()
			gen.Php(s, p, h)
			r := s.Solve()
			if h >= p && r != 1 {
				t.Errorf("php %d/%d not sat", p, h)
			}
			if h < p && r != -1 {
				t.Errorf("php %d/%d not unsat", p, h)
			}
		}
	}
}

func TestSAssume(t *testing.T) {
	N := 10
	s := NewS()
	gen.BinCycle(s, 100)
	for i := 0; i < N; i++ {
		u := z.Var(((i + 4) % N) + 1)
		v := z.Var(((i + 1) % N) + 1)
		if i%2 == 0 {
			// assume some var and negation of another: unsat
			s.Assume(u.Pos())
			s.Assume(v.Neg())

			if s.Solve() == 1 {
				t.Errorf("sat[%s,%s] shouldn't be", u.Pos(), v.Neg())
			}
			y := s.Why(nil)
			if len(y) != 2 {
				t.Errorf("why wrong: %v", y)
			}
			continue
		}
		s.Assume(u.Pos())
		if s.Solve() == -1 {
			t.Errorf("unsat shouldn't be")
		}
		y := s.Why(nil)
		if len(y) != 0 {
			t.Errorf("call was sat, but Why returned %v", y)
		}
	}
}

func TestSAddEmpty(t *testing.T) {
	s := NewS()
	s.Add(z.LitNull)
	s.Add(z.Lit(17))
	s.Add(z.LitNull)
	if s.Solve() != -1 {
		t.Errorf("sat on add empty")
	}
	s.Assume(z.Lit(4))
	if s.Solve() != -1 {
		t.Errorf("sat on add empty under assumption")
	} else if len(s.Why(nil)) != 0 {
		t.Errorf("why not empty after add empty")
	}
}

func TestSGrow(t *testing.T) {
	s := NewSV(10)
	s.Add(z.Lit(20))
	s.Add(z.Lit(50))
	s.Add(z.Lit(150))
	s.Add(z.LitNull)
	if s.Solve() != 1 {
		t.Errorf("not sat on grow")
	}
}

func TestSGrowRand(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	s := NewS()
	for i := 0; i < 512; i++ {
		v := z.Var(rnd.Intn(16384*4) + 1)
		s.Add(v.Pos())
		s.Add(0)
	}
	if r := s.Solve(); r != 1 {
		t.Errorf("rand grow solve: %d", r)
	}
}

func TestSBinNew(t *testing.T) {
	N := 10
	s := NewS()
	for i := 1; i <= N; i++ {
		s.Add(z.Var(i).Neg())
		if i < N {
			s.Add(z.Var(i + 1).Pos())
		} else {
			s.Add(z.Var(1).Pos())
		}
		s.Add(0)
	}
	if r := s.Solve(); r != 1 {
		t.Errorf("cycle not sat: %d", r)
	}
}

func TestSTimeout(t *testing.T) {
	s := NewS()
	gen.Rand3Cnf(s, 3000, 12000)
	r := s.GoSolve().Try(640 * time.Millisecond)
	if r != 0 {
		t.Errorf("didn't timeout")
	}
}

func TestSRefreshIdempotent(t *testing.T) {
	s := NewS()
	gen.Rand3Cnf(s, 50, 180)
	r := s.Solve()
	s.Refresh()
	s.Refresh()
	if s.Trail.Level != 0 {
		t.Errorf("refresh left level %d", s.Trail.Level)
	}
	r2 := s.Solve()
	if r != r2 {
		t.Errorf("result changed across refresh: %d != %d", r, r2)
	}
}

func TestSUnitChain(t *testing.T) {
	s := NewS()
	for _, c := range [][]z.Lit{
		{z.Var(1).Pos()},
		{z.Var(1).Neg(), z.Var(2).Pos()},
		{z.Var(2).Neg(), z.Var(3).Pos()},
		{z.Var(3).Neg(), z.Var(4).Pos()}} {
		for _, m := range c {
			s.Add(m)
		}
		s.Add(0)
	}
	if s.Solve() != 1 {
		t.Fatalf("unit chain not sat")
	}
	for u := z.Var(1); u <= 4; u++ {
		if !s.Value(u.Pos()) {
			t.Errorf("%s not true", u)
		}
		if s.Vars.Levels[u] != 0 {
			t.Errorf("%s not at root level", u)
		}
	}
	st := NewStats()
	s.ReadStats(st)
	if st.Guesses != 0 {
		t.Errorf("decisions made on a unit chain: %d", st.Guesses)
	}
}

func TestSPureLiterals(t *testing.T) {
	cfg := NewConfig()
	cfg.Preprocess = true
	s := NewSC(cfg)
	for _, c := range [][]z.Lit{
		{z.Var(1).Pos(), z.Var(2).Pos(), z.Var(3).Pos()},
		{z.Var(1).Pos(), z.Var(2).Neg(), z.Var(4).Pos()},
		{z.Var(1).Pos(), z.Var(3).Pos(), z.Var(4).Pos()}} {
		for _, m := range c {
			s.Add(m)
		}
		s.Add(0)
	}
	if s.Solve() != 1 {
		t.Fatalf("not sat")
	}
	if !s.Value(z.Var(1).Pos()) {
		t.Errorf("pure atom 1 not true")
	}
	if s.Vars.Levels[z.Var(1)] != 0 {
		t.Errorf("pure atom 1 not fixed at root")
	}
}

func TestSRestartStability(t *testing.T) {
	mk := func(noRestart bool) int {
		cfg := NewConfig()
		cfg.LubyU = 1
		cfg.NoRestart = noRestart
		s := NewSC(cfg)
		gen.Php(s, 6, 6)
		return s.Solve()
	}
	a, b := mk(false), mk(true)
	if a != b {
		t.Errorf("restart configuration changed the result: %d != %d", a, b)
	}
	if a != 1 {
		t.Errorf("php 6/6 not sat: %d", a)
	}
}

func TestSStoppingNone(t *testing.T) {
	cfg := NewConfig()
	cfg.Stopping = NoStopping
	s := NewSC(cfg)
	gen.Php(s, 5, 4)
	if r := s.Solve(); r != -1 {
		t.Errorf("php 5/4 with exhaustive resolution: %d", r)
	}
	cfg2 := NewConfig()
	cfg2.Stopping = NoStopping
	s2 := NewSC(cfg2)
	gen.Php(s2, 4, 4)
	if r := s2.Solve(); r != 1 {
		t.Errorf("php 4/4 with exhaustive resolution: %d", r)
	}
}

func TestSVsidsChaff(t *testing.T) {
	cfg := NewConfig()
	cfg.Vsids = VsidsChaff
	s := NewSC(cfg)
	gen.Php(s, 5, 4)
	if r := s.Solve(); r != -1 {
		t.Errorf("php 5/4 with chaff bumps: %d", r)
	}
}

func TestSRandomDecisions(t *testing.T) {
	cfg := NewConfig()
	cfg.RandomChoiceFrequency = 0.1
	cfg.PolarityLean = 0.5
	cfg.Seed = 44
	s := NewSC(cfg)
	gen.Seed(5)
	gen.Rand3Cnf(s, 100, 300)
	r := s.Solve()
	if r == 1 {
		if errs := s.Cdb.CheckModel(); len(errs) != 0 {
			t.Errorf("bad model: %v", errs)
		}
	}
}
