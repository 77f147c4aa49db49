// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"fmt"
	"testing"

	"github.com/teeaychem/otter-sat/z"
)

var cnf = [][]z.Lit{
	{z.Lit(3), z.Lit(5), z.Lit(6), z.Lit(24)},
	{z.Lit(104), z.Lit(97), z.Lit(17), z.Lit(19), z.Lit(3), z.Lit(9), z.Lit(10), z.Lit(12), z.Lit(14), z.Lit(20), z.Lit(22), z.Lit(24), z.Lit(26),
		z.Lit(28), z.Lit(30), z.Lit(32), z.Lit(34), z.Lit(36), z.Lit(38), z.Lit(40), z.Lit(42), z.Lit(44), z.Lit(46), z.Lit(48), z.Lit(50), z.Lit(52), z.Lit(54),
		z.Lit(56), z.Lit(58), z.Lit(60), z.Lit(62), z.Lit(64), z.Lit(66), z.Lit(68), z.Lit(70)},
	{z.Lit(33), z.Lit(35)},
	{z.Lit(118), z.Lit(121), z.Lit(6)}}

var cnfHds = []Chd{
	MakeChd(false, 0, 4),
	MakeChd(true, 0, 35), // size exceeds the header modulus
	MakeChd(true, 0, 2),
	MakeChd(false, 4, 3)}

// for compaction testing: remove clauses at indices in rmi, leave
// behind clauses with indices in left
var rmi = [...]int{0, 2}
var left = [...]int{1, 3}

func TestCDat(t *testing.T) {
	ldb := NewCDat(8)
	locs := make([]z.C, 0, 10)
	for i, cls := range cnf {
		locs = append(locs, ldb.AddLits(cnfHds[i], cls))
	}
	ms := make([]z.Lit, 0, 10)
	for i, p := range locs {
		ms = ms[:0]
		ms = ldb.Load(p, ms)
		if len(ms) != len(cnf[i]) {
			t.Errorf("bad load: %v != %v", ms, cnf[i])
		}
		for j, m := range ms {
			if m != cnf[i][j] {
				t.Errorf("mismatched clause %d[%d]: %s != %s", i, j, m, cnf[i][j])
			}
		}
		if ldb.Size(p) != len(cnf[i]) {
			t.Errorf("size %d != %d", ldb.Size(p), len(cnf[i]))
		}
		if ldb.Chd(p) != cnfHds[i] {
			t.Errorf("header mismatch for clause %d", i)
		}
	}

	// activities move with the clause
	ldb.SetAct(locs[1], 3.5)
	if ldb.Act(locs[1]) != 3.5 {
		t.Errorf("activity readback")
	}

	rm := make([]z.C, len(rmi))
	for i, j := range rmi {
		rm[i] = locs[j]
	}
	relo, freed := ldb.Compact(rm)
	if freed == 0 {
		t.Errorf("compact freed nothing")
	}
	for _, i := range rmi {
		if relo[locs[i]] != z.CNull {
			t.Errorf("removed clause still mapped")
		}
	}
	for _, i := range left {
		p, ok := relo[locs[i]]
		if !ok {
			t.Errorf("missing location")
			continue
		}
		if p == z.CNull {
			t.Errorf("left clause indicated as removed in map")
			continue
		}
		ms = ms[:0]
		ms = ldb.Load(p, ms)
		if len(ms) != len(cnf[i]) {
			t.Errorf("bad load after compact: %v != %v", ms, cnf[i])
		}
		for j, m := range ms {
			if m != cnf[i][j] {
				t.Errorf("mismatched clause %d[%d] after compact", i, j)
			}
		}
		if ldb.Chd(p) != cnfHds[i] {
			t.Errorf("mismatched head after compact")
		}
	}
	if ldb.Act(relo[locs[1]]) != 3.5 {
		t.Errorf("activity lost in compact")
	}
	// for coverage, not really value-tested...
	_ = fmt.Sprintf("%s", ldb)
}
