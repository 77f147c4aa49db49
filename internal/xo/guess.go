// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"github.com/teeaychem/otter-sat/z"
)

const (
	actRescale    = 1e100
	actRescaleInv = 1e-100
)

// Guess is the decision heuristic: an indexed max-heap of atoms keyed by
// activity, with phase memory and optional randomness.
type Guess struct {
	acts  []float64 // by atom
	heap  []z.Var
	pos   []int32 // by atom; -1 when not in the heap
	cache []int8  // by atom; saved phase, 0 unset

	inc   float64
	decay float64

	rng          *pcg32
	randFreq     float64
	polarityLean float64

	stGuesses int64
}

func newGuess(capHint int) *Guess {
	if capHint < 2 {
		capHint = 2
	}
	g := &Guess{
		acts:  make([]float64, capHint+1),
		heap:  make([]z.Var, 0, capHint),
		pos:   make([]int32, capHint+1),
		cache: make([]int8, capHint+1),
		inc:   1.0,
		decay: 0.95,
		rng:   newPcg32(0)}
	for i := range g.pos {
		g.pos[i] = -1
	}
	return g
}

// NewGuessCdb creates a Guess sized for cdb's variables.
func NewGuessCdb(cdb *Cdb) *Guess {
	return newGuess(int(cdb.Vars.Top))
}

func (g *Guess) configure(cfg *Config) {
	g.decay = cfg.VariableDecay
	g.randFreq = cfg.RandomChoiceFrequency
	g.polarityLean = cfg.PolarityLean
	g.rng = newPcg32(cfg.Seed)
}

// Len returns the number of atoms in the heap.
func (g *Guess) Len() int {
	return len(g.heap)
}

// Push (re)inserts the atom of m into the heap.  The sign of m is
// ignored; the phase cache is not changed.
func (g *Guess) Push(m z.Lit) {
	u := m.Var()
	if g.pos[u] != -1 {
		return
	}
	g.pos[u] = int32(len(g.heap))
	g.heap = append(g.heap, u)
	g.up(len(g.heap) - 1)
}

// SavePhase records the last value of atom u for future decisions.
func (g *Guess) SavePhase(u z.Var, sign int8) {
	g.cache[u] = sign
}

// Bump increases the activity of m's atom, rescaling all activities when
// the threshold is exceeded.
func (g *Guess) Bump(m z.Lit) {
	u := m.Var()
	g.acts[u] += g.inc
	if g.acts[u] > actRescale {
		for i := range g.acts {
			g.acts[i] *= actRescaleInv
		}
		g.inc *= actRescaleInv
	}
	if p := g.pos[u]; p != -1 {
		g.up(int(p))
	}
}

// Decay ages all activities by growing the increment.
func (g *Guess) Decay() {
	g.inc /= g.decay
}

// Guess pops the most active unassigned atom and chooses its polarity:
// saved phase if set, otherwise a positive lean with the configured
// probability, otherwise negative.  With probability randFreq an
// unassigned atom is chosen uniformly at random instead.
func (g *Guess) Guess(vals []int8) z.Lit {
	if g.randFreq > 0 && g.rng.float64() < g.randFreq {
		if m := g.randGuess(vals); m != z.LitNull {
			g.stGuesses++
			return m
		}
	}
	for len(g.heap) > 0 {
		u := g.pop()
		if vals[u.Pos()] != 0 {
			continue
		}
		g.stGuesses++
		return g.lean(u)
	}
	return z.LitNull
}

func (g *Guess) lean(u z.Var) z.Lit {
	switch {
	case g.cache[u] == 1:
		return u.Pos()
	case g.cache[u] == -1:
		return u.Neg()
	case g.polarityLean > 0 && g.rng.float64() < g.polarityLean:
		return u.Pos()
	default:
		return u.Neg()
	}
}

func (g *Guess) randGuess(vals []int8) z.Lit {
	n := len(g.heap)
	if n == 0 {
		return z.LitNull
	}
	// a bounded number of tries; the heap may hold assigned atoms.
	for i := 0; i < 8; i++ {
		u := g.heap[g.rng.intn(n)]
		if vals[u.Pos()] == 0 {
			g.remove(u)
			return g.lean(u)
		}
	}
	return z.LitNull
}

// has indicates whether any atom in the heap is unassigned.
func (g *Guess) has(vals []int8) bool {
	for _, u := range g.heap {
		if vals[u.Pos()] == 0 {
			return true
		}
	}
	return false
}

func (g *Guess) pop() z.Var {
	u := g.heap[0]
	g.pos[u] = -1
	last := len(g.heap) - 1
	if last > 0 {
		g.heap[0] = g.heap[last]
		g.pos[g.heap[0]] = 0
	}
	g.heap = g.heap[:last]
	if last > 0 {
		g.down(0)
	}
	return u
}

func (g *Guess) remove(u z.Var) {
	p := int(g.pos[u])
	g.pos[u] = -1
	last := len(g.heap) - 1
	if p != last {
		g.heap[p] = g.heap[last]
		g.pos[g.heap[p]] = int32(p)
	}
	g.heap = g.heap[:last]
	if p != last {
		g.down(p)
		g.up(p)
	}
}

func (g *Guess) up(i int) {
	u := g.heap[i]
	a := g.acts[u]
	for i > 0 {
		p := (i - 1) / 2
		v := g.heap[p]
		if g.acts[v] >= a {
			break
		}
		g.heap[i] = v
		g.pos[v] = int32(i)
		i = p
	}
	g.heap[i] = u
	g.pos[u] = int32(i)
}

func (g *Guess) down(i int) {
	n := len(g.heap)
	u := g.heap[i]
	a := g.acts[u]
	for {
		l := 2*i + 1
		if l >= n {
			break
		}
		c := l
		if r := l + 1; r < n && g.acts[g.heap[r]] > g.acts[g.heap[l]] {
			c = r
		}
		v := g.heap[c]
		if a >= g.acts[v] {
			break
		}
		g.heap[i] = v
		g.pos[v] = int32(i)
		i = c
	}
	g.heap[i] = u
	g.pos[u] = int32(i)
}

func (g *Guess) growToVar(u z.Var) {
	w := int(u) + 1
	acts := make([]float64, w)
	copy(acts, g.acts)
	g.acts = acts

	pos := make([]int32, w)
	copy(pos, g.pos)
	for i := len(g.cache); i < w; i++ {
		pos[i] = -1
	}
	g.pos = pos

	cache := make([]int8, w)
	copy(cache, g.cache)
	g.cache = cache
}

func (g *Guess) readStats(st *Stats) {
	st.Guesses += g.stGuesses
	g.stGuesses = 0
}

// pcg32 is a minimal PCG pseudorandom generator.  Keeping the generator
// in the heuristic makes solves reproducible from the configured seed
// with no global state.
type pcg32 struct {
	state, inc uint64
}

const pcg32Inc = 3215534235932367344

func newPcg32(seed uint64) *pcg32 {
	return &pcg32{state: seed + pcg32Inc, inc: pcg32Inc}
}

func (p *pcg32) next() uint32 {
	old := p.state
	p.state = old*6364136223846793005 + p.inc
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint(old >> 59)
	return xorshifted>>rot | xorshifted<<((-rot)&31)
}

func (p *pcg32) float64() float64 {
	return float64(p.next()) / (1 << 32)
}

func (p *pcg32) intn(n int) int {
	return int(p.next() % uint32(n))
}
