// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import "testing"

var hs = []Chd{
	MakeChd(false, 2, 21),
	MakeChd(true, 2, 21),
	MakeChd(false, 6, 55)}

var ls = []bool{false, true, false}
var lbds = []uint32{2, 2, 6}
var szs = []uint32{21, 21, 55}

func TestChd(t *testing.T) {
	for i, h := range hs {
		if h.Learnt() != ls[i] {
			t.Errorf("%d: learnt %t != %t", i, h.Learnt(), ls[i])
		}
		if h.Lbd() != lbds[i] {
			t.Errorf("%d: %d != %d", i, h.Lbd(), lbds[i])
		}
		if h.Size() != szs[i]&31 {
			t.Errorf("%d: %d != %d", i, h.Size(), szs[i]&31)
		}
	}
}

func TestChdFlags(t *testing.T) {
	for i, h := range hs {
		g := h.SetGlue()
		if !g.Glue() || h.Glue() {
			t.Errorf("%d: glue flag", i)
		}
		d := g.SetDeleted()
		if !d.Deleted() || g.Deleted() {
			t.Errorf("%d: deleted flag", i)
		}
		for _, hh := range [...]Chd{g, d} {
			if hh.Learnt() != ls[i] {
				t.Errorf("%d: flags changed learnt", i)
			}
			if hh.Lbd() != lbds[i] {
				t.Errorf("%d: flags changed lbd", i)
			}
			if hh.Size() != szs[i]&31 {
				t.Errorf("%d: flags changed size", i)
			}
		}
	}
}

func TestChdLbdSaturates(t *testing.T) {
	h := MakeChd(true, 1000, 3)
	if h.Lbd() != 255 {
		t.Errorf("lbd %d != 255", h.Lbd())
	}
	h = h.SetLbd(7)
	if h.Lbd() != 7 {
		t.Errorf("set lbd %d != 7", h.Lbd())
	}
}
