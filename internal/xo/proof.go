// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/teeaychem/otter-sat/z"
)

// EventKind discriminates clause lifecycle events.
type EventKind int

const (
	// EventOriginal records the addition of an input clause.
	EventOriginal EventKind = iota
	// EventLearn records a clause derived by resolution; Ants lists
	// the antecedent event ids in resolution order.
	EventLearn
	// EventDelete records that a clause left the database.
	EventDelete
	// EventFinal marks a clause contributing to the UNSAT derivation.
	EventFinal
	// EventUnit records a literal fixed by unit propagation at the
	// root level.
	EventUnit
)

func (k EventKind) String() string {
	switch k {
	case EventOriginal:
		return "o"
	case EventLearn:
		return "l"
	case EventDelete:
		return "d"
	case EventFinal:
		return "f"
	case EventUnit:
		return "u"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one element of the clause lifecycle stream.  Ids are assigned
// serially and never reused; a Delete refers to a previously emitted id.
type Event struct {
	Kind EventKind
	Id   uint64
	Lits []z.Lit
	Ants []uint64
}

func (e Event) String() string {
	return fmt.Sprintf("%s %d %v %v", e.Kind, e.Id, e.Lits, e.Ants)
}

type proofRec struct {
	kind EventKind
	lits []z.Lit
	ants []uint64
}

// Proof publishes the clause lifecycle stream and retains the derivation
// graph for unsat core extraction.  Arena ids are transient, so Proof
// keeps its own serial id space; Remap follows arena compactions.
type Proof struct {
	recs    []proofRec // recs[i] carries id i+1
	cs      map[z.C]uint64
	units   map[z.Var]uint64
	emptyID   uint64
	core      []uint64
	finalised bool
	handler   func(Event)
}

func NewProof() *Proof {
	return &Proof{
		cs:    make(map[z.C]uint64),
		units: make(map[z.Var]uint64)}
}

// SetHandler registers the event sink.  Events already emitted are not
// replayed.
func (pf *Proof) SetHandler(f func(Event)) {
	pf.handler = f
}

func (pf *Proof) add(kind EventKind, ms []z.Lit, ants []uint64) uint64 {
	lits := make([]z.Lit, len(ms))
	copy(lits, ms)
	as := make([]uint64, len(ants))
	copy(as, ants)
	pf.recs = append(pf.recs, proofRec{kind: kind, lits: lits, ants: as})
	id := uint64(len(pf.recs))
	if pf.handler != nil {
		pf.handler(Event{Kind: kind, Id: id, Lits: lits, Ants: as})
	}
	return id
}

// Original publishes the addition of an input clause and, when c names
// an arena slot, binds it.
func (pf *Proof) Original(c z.C, ms []z.Lit) uint64 {
	id := pf.add(EventOriginal, ms, nil)
	if c != z.CNull && c != z.CInf {
		pf.cs[c] = id
	}
	return id
}

// Bind associates arena id c with proof id.
func (pf *Proof) Bind(c z.C, id uint64) {
	pf.cs[c] = id
}

// OriginalEmpty publishes an explicitly added empty clause.
func (pf *Proof) OriginalEmpty() {
	if pf.emptyID != 0 {
		return
	}
	pf.emptyID = pf.add(EventOriginal, nil, nil)
}

// FixUnit publishes a literal fixed at the root level with its
// derivation and remembers it for later resolution steps.  The first
// derivation of an atom's value wins.
func (pf *Proof) FixUnit(m z.Lit, ants []uint64) uint64 {
	id := pf.add(EventUnit, []z.Lit{m}, ants)
	if _, ok := pf.units[m.Var()]; !ok {
		pf.units[m.Var()] = id
	}
	return id
}

// LearnUnit publishes a derived unit clause.
func (pf *Proof) LearnUnit(m z.Lit, ants []uint64) uint64 {
	id := pf.add(EventLearn, []z.Lit{m}, ants)
	if _, ok := pf.units[m.Var()]; !ok {
		pf.units[m.Var()] = id
	}
	return id
}

// Learn publishes a derived clause stored under arena id c.
func (pf *Proof) Learn(c z.C, ms []z.Lit, ants []uint64) uint64 {
	id := pf.add(EventLearn, ms, ants)
	pf.cs[c] = id
	return id
}

// Delete publishes the removal of the clause stored under arena id c.
func (pf *Proof) Delete(c z.C) {
	id, ok := pf.cs[c]
	if !ok {
		panic(fmt.Sprintf("delete of unbound clause %s", c))
	}
	delete(pf.cs, c)
	if pf.handler != nil {
		pf.handler(Event{Kind: EventDelete, Id: id})
	}
}

// EmptyFrom publishes the derivation of the empty clause; the context is
// permanently unsatisfiable afterwards.
func (pf *Proof) EmptyFrom(ants []uint64) uint64 {
	if pf.emptyID != 0 {
		return pf.emptyID
	}
	pf.emptyID = pf.add(EventLearn, nil, ants)
	return pf.emptyID
}

// ID returns the proof id bound to arena id c.
func (pf *Proof) ID(c z.C) uint64 {
	return pf.cs[c]
}

// UnitID returns the proof id of the unit fixing atom v.
func (pf *Proof) UnitID(v z.Var) uint64 {
	return pf.units[v]
}

// HasEmpty indicates whether the empty clause has been derived.
func (pf *Proof) HasEmpty() bool {
	return pf.emptyID != 0
}

// Remap rebinds arena ids after a compaction.
func (pf *Proof) Remap(relo map[z.C]z.C) {
	cs := make(map[z.C]uint64, len(pf.cs))
	for c, id := range pf.cs {
		nc, ok := relo[c]
		if !ok {
			cs[c] = id
			continue
		}
		if nc == z.CNull {
			panic(fmt.Sprintf("live proof binding for removed clause %s", c))
		}
		cs[nc] = id
	}
	pf.cs = cs
}

// Finalise marks the clauses contributing to the empty clause and
// publishes a Final event for each in id order.  It records the unsat
// core: the marked original clauses.
func (pf *Proof) Finalise() {
	if pf.emptyID == 0 || pf.finalised {
		return
	}
	pf.finalised = true
	marked := make([]bool, len(pf.recs)+1)
	stack := []uint64{pf.emptyID}
	marked[pf.emptyID] = true
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range pf.recs[id-1].ants {
			if a == 0 || marked[a] {
				continue
			}
			marked[a] = true
			stack = append(stack, a)
		}
	}
	pf.core = pf.core[:0]
	for id := uint64(1); id <= uint64(len(pf.recs)); id++ {
		if !marked[id] {
			continue
		}
		if pf.handler != nil {
			pf.handler(Event{Kind: EventFinal, Id: id, Lits: pf.recs[id-1].lits})
		}
		if pf.recs[id-1].kind == EventOriginal {
			pf.core = append(pf.core, id)
		}
	}
}

// Core returns the original clauses marked by Finalise.
func (pf *Proof) Core() [][]z.Lit {
	return lo.Map(pf.core, func(id uint64, _ int) []z.Lit {
		ms := make([]z.Lit, len(pf.recs[id-1].lits))
		copy(ms, pf.recs[id-1].lits)
		return ms
	})
}
