// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"testing"

	"github.com/teeaychem/otter-sat/gen"
	"github.com/teeaychem/otter-sat/z"
)

func TestTrailBack(t *testing.T) {
	N := 256
	s := NewSV(N)
	gen.Rand3Cnf(s, N, N+50)
	trail := s.Trail

	for i := 0; i < N/2; i++ {
		for j := 0; j < i; j++ {
			m := z.Var(j + 1).Pos()
			if s.Vars.Vals[m] != 0 {
				continue
			}
			trail.Decide(m)
			if x := trail.Prop(); x != z.CNull {
				trail.Back(0)
				return
			}
		}
		for j := i; j >= 0; j-- {
			if j%7 != 0 {
				continue
			}
			if j < trail.Level {
				trail.Back(j)
			}
			if trail.Level > i {
				t.Errorf("level %d > %d", trail.Level, i)
			}
		}
		trail.Back(0)
	}
}

func TestTrailBinarySat(t *testing.T) {
	N := 8
	s := NewS()
	gen.BinCycle(s, N)
	trail := s.Trail
	trail.Decide(z.Lit(2))
	if x := trail.Prop(); x != z.CNull {
		t.Errorf("binary cycle: unexpected conflict")
	}
	if trail.Tail != N {
		t.Errorf("binary cycle: tail %d != %d", trail.Tail, N)
	}
	for _, e := range s.Cdb.CheckWatches() {
		t.Errorf("%s", e)
	}
}

func TestTrailBinaryUnsat(t *testing.T) {
	N := 8
	s := NewS()
	gen.BinCycle(s, N)
	s.Add(z.Var(1).Pos())
	s.Add(z.Var(2).Pos())
	s.Add(0)
	trail := s.Trail
	trail.Decide(z.Var(N + 1).Pos())
	if x := trail.Prop(); x != z.CNull {
		t.Errorf("unexpected conflict after first decision")
	}
	trail.Decide(z.Var(3).Neg())
	if x := trail.Prop(); x == z.CNull {
		t.Errorf("binary cycle: expected conflict")
	}
}

func TestTrailPhaseSaving(t *testing.T) {
	s := NewS()
	gen.BinCycle(s, 4)
	trail := s.Trail
	trail.Decide(z.Lit(2))
	trail.Prop()
	trail.Back(0)
	if s.Guess.cache[z.Var(1)] != 1 {
		t.Errorf("phase not saved on backjump")
	}
}

func TestTrailFacts(t *testing.T) {
	s := NewS()
	s.Add(z.Var(1).Pos())
	s.Add(0)
	if !s.Vars.Facts[z.Var(1)] {
		t.Errorf("unit addition is not a fact")
	}
	if s.Vars.Levels[z.Var(1)] != 0 {
		t.Errorf("unit addition above the root level")
	}
}
