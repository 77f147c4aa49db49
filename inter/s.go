// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

// Package inter holds the public solving interfaces.
package inter

import (
	"time"

	"github.com/teeaychem/otter-sat/z"
)

// Solvable encapsulates a decision procedure which may run for a long
// time.
//
// Solve returns
//
//	1  if the problem is SAT
//	0  if the problem is undetermined
//	-1 if the problem is UNSAT
//
// These result codes are used throughout the module.
type Solvable interface {
	Solve() int
}

// Solve is a handle on a Solve running in its own goroutine.
type Solve interface {
	// Try waits at most d for the result, stopping the solve on
	// expiry; it returns the result (0 for unknown).
	Try(d time.Duration) int

	// Wait blocks until the solve completes.
	Wait() int

	// Stop stops the solve and returns the result.
	Stop() int

	// Test polls for a result without blocking.
	Test() (int, bool)
}

// GoSolvable encapsulates something which can solve in the background.
type GoSolvable interface {
	GoSolve() Solve
}

// Adder is something to which clauses can be added as sequences of
// literals terminated by z.LitNull.
type Adder interface {
	// Add adds a literal to the clause under construction; z.LitNull
	// terminates the clause.  Add should not be called while another
	// goroutine accesses the object.
	Add(m z.Lit)
}

// MaxVar records the maximum atom from a stream of Adds and Assumes.
type MaxVar interface {
	MaxVar() z.Var
}

// Liter produces fresh atoms, returning the corresponding positive
// literal.
type Liter interface {
	Lit() z.Lit
}

// Model is something from which a model can be extracted.
type Model interface {
	Value(m z.Lit) bool
}

// Assumable encapsulates solving under assumptions.
type Assumable interface {
	// Assume makes assumptions for the next Solve, which consumes
	// them.
	Assume(ms ...z.Lit)

	// Why gives a subset of the assumptions responsible for the last
	// unsatisfiable result, stored in dst if possible.
	Why(dst []z.Lit) []z.Lit

	// Failed indicates whether assumption m is in that subset.
	Failed(m z.Lit) bool
}

// Refreshable can return to its root state between incremental calls,
// keeping what it has learnt.
type Refreshable interface {
	Refresh()
}

// Learner receives learnt clauses as they are derived, in the manner of
// incremental solving interfaces.
type Learner interface {
	SetLearnCallback(f func(ms []z.Lit))
}

// Stoppable accepts an external terminate predicate, polled between
// conflicts.
type Stoppable interface {
	SetTerminate(f func() bool)
}

// S encapsulates a complete incremental SAT interface.
type S interface {
	Adder
	Liter
	MaxVar
	Model
	Solvable
	GoSolvable
	Assumable
	Refreshable
	Learner
	Stoppable
}
