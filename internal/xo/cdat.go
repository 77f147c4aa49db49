// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"bytes"
	"fmt"
	"math"

	"github.com/teeaychem/otter-sat/z"
)

// CDat is the clause arena.  Clause data is laid out in one flat slice:
//
//	[activity] [header] [lit0 lit1 ...] [LitNull]
//
// A clause id (z.C) is the offset of lit0, so the header is at id-1 and
// the activity word at id-2.  Ids are stable until Compact, which
// returns a relocation map every holder of an id must apply.
type CDat struct {
	D []z.Lit
}

const (
	cdatChdOff = 1
	cdatActOff = 2
	cdatHdLen  = 2
)

func NewCDat(capHint int) *CDat {
	if capHint < 16 {
		capHint = 16
	}
	return &CDat{D: make([]z.Lit, 0, capHint)}
}

// AddLits appends a clause and returns its id.  ms is copied.
func (c *CDat) AddLits(hd Chd, ms []z.Lit) z.C {
	c.D = append(c.D, 0, z.Lit(hd))
	p := z.C(len(c.D))
	c.D = append(c.D, ms...)
	c.D = append(c.D, z.LitNull)
	return p
}

// Load appends the literals of clause p to ms and returns the result.
func (c *CDat) Load(p z.C, ms []z.Lit) []z.Lit {
	for q := p; ; q++ {
		m := c.D[q]
		if m == z.LitNull {
			return ms
		}
		ms = append(ms, m)
	}
}

// Size returns the number of literals of clause p.
func (c *CDat) Size(p z.C) int {
	n := 0
	for q := p; c.D[q] != z.LitNull; q++ {
		n++
	}
	return n
}

func (c *CDat) Chd(p z.C) Chd {
	return Chd(c.D[p-cdatChdOff])
}

func (c *CDat) SetChd(p z.C, hd Chd) {
	c.D[p-cdatChdOff] = z.Lit(hd)
}

// Act returns the activity of clause p.
func (c *CDat) Act(p z.C) float32 {
	return math.Float32frombits(uint32(c.D[p-cdatActOff]))
}

func (c *CDat) SetAct(p z.C, a float32) {
	c.D[p-cdatActOff] = z.Lit(math.Float32bits(a))
}

// Forall calls f for every clause in the arena, including deleted ones
// whose slots have not been reclaimed yet.  ms is reused across calls.
func (c *CDat) Forall(f func(p z.C, hd Chd, ms []z.Lit)) {
	ms := make([]z.Lit, 0, 16)
	i := 0
	for i < len(c.D) {
		p := z.C(i + cdatHdLen)
		hd := c.Chd(p)
		ms = ms[:0]
		q := int(p)
		for c.D[q] != z.LitNull {
			ms = append(ms, c.D[q])
			q++
		}
		f(p, hd, ms)
		i = q + 1
	}
}

// Compact removes the clauses in rms and slides the rest down.  It
// returns a relocation map with an entry for every clause: removed
// clauses map to z.CNull, kept clauses to their new id.  The second
// result is the number of words reclaimed.
func (c *CDat) Compact(rms []z.C) (map[z.C]z.C, int) {
	rmSet := make(map[z.C]bool, len(rms))
	for _, p := range rms {
		rmSet[p] = true
	}
	relo := make(map[z.C]z.C, 16)
	w := 0
	i := 0
	for i < len(c.D) {
		p := z.C(i + cdatHdLen)
		end := int(p)
		for c.D[end] != z.LitNull {
			end++
		}
		if rmSet[p] {
			relo[p] = z.CNull
		} else {
			if w != i {
				copy(c.D[w:], c.D[i:end+1])
			}
			relo[p] = z.C(w + cdatHdLen)
			w += end + 1 - i
		}
		i = end + 1
	}
	freed := len(c.D) - w
	c.D = c.D[:w]
	return relo, freed
}

// Len returns the number of words in use.
func (c *CDat) Len() int {
	return len(c.D)
}

func (c *CDat) String() string {
	buf := bytes.NewBuffer(nil)
	c.Forall(func(p z.C, hd Chd, ms []z.Lit) {
		fmt.Fprintf(buf, "%s %s %v\n", p, hd, ms)
	})
	return buf.String()
}
