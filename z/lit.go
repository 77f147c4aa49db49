// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

// Package z provides compact encodings of atoms, literals, and clause
// identifiers shared by all components of the solver.
package z

import (
	"fmt"
	"strconv"
)

// Lit encodes a literal as 2*atom + polarity-bit.  The least significant
// bit is 1 for negated literals, so m and m.Not() differ only in that bit
// and literals index arrays of size 2*(maxVar+1) directly.
type Lit uint32

// LitNull is the zero literal.  It terminates clauses in the Add
// interface and is not a valid literal otherwise.
const LitNull Lit = 0

// LitMax bounds the literal space: atoms are positive int32s.
const LitMax Lit = 1<<32 - 1

// Var returns the atom underlying m.
func (m Lit) Var() Var {
	return Var(m >> 1)
}

// IsPos indicates whether m has positive polarity.
func (m Lit) IsPos() bool {
	return m&1 == 0
}

// Not returns the negation of m.
func (m Lit) Not() Lit {
	return m ^ 1
}

// Sign returns 1 if m is positive, -1 otherwise.
func (m Lit) Sign() int {
	if m&1 == 0 {
		return 1
	}
	return -1
}

// Dimacs2Lit converts a non-zero signed DIMACS integer to a Lit.
func Dimacs2Lit(d int) Lit {
	if d < 0 {
		return Var(-d).Neg()
	}
	return Var(d).Pos()
}

// Dimacs converts m to its signed DIMACS form.
func (m Lit) Dimacs() int {
	if m&1 == 1 {
		return -int(m >> 1)
	}
	return int(m >> 1)
}

func (m Lit) String() string {
	return strconv.Itoa(m.Dimacs())
}

// Var is an atom identifier.  Valid atoms are in [1..VarMax]; 0 is
// reserved.
type Var uint32

// VarNull is the reserved atom 0.
const VarNull Var = 0

// VarMax is the largest usable atom; beyond it the literal encoding
// would no longer fit a signed 32 bit DIMACS integer.
const VarMax Var = 1<<31 - 1

// Pos returns the positive literal of v.
func (v Var) Pos() Lit {
	return Lit(v << 1)
}

// Neg returns the negative literal of v.
func (v Var) Neg() Lit {
	return Lit(v<<1 | 1)
}

func (v Var) String() string {
	return fmt.Sprintf("v%d", uint32(v))
}
