// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"fmt"

	"github.com/teeaychem/otter-sat/z"
)

// Watch packs a clause id, a blocking literal, and 1 bit for whether the
// clause is binary.
type Watch uint64

const (
	watchLitBits = 31
	watchLitMask = (1 << watchLitBits) - 1
	watchCMask   = uint64(0xffffffff) << watchLitBits
	watchBinMask = 1 << 63
)

// MakeWatch creates a watch for clause c with blocking literal o.  For a
// binary clause the blocker is the entire rest of the clause, so
// propagation never touches the arena.
func MakeWatch(c z.C, o z.Lit, isBin bool) Watch {
	v := uint64(0)
	if isBin {
		v |= watchBinMask
	}
	v |= uint64(o)
	v |= uint64(c) << watchLitBits
	return Watch(v)
}

// Other returns the blocking literal.
func (w Watch) Other() z.Lit {
	return z.Lit(w & watchLitMask)
}

// IsBinary indicates whether the watched clause has exactly 2 literals.
func (w Watch) IsBinary() bool {
	return w&watchBinMask != 0
}

// C returns the watched clause's id.
func (w Watch) C() z.C {
	return z.C((uint64(w) &^ watchBinMask) >> watchLitBits)
}

// Relocate returns a watch with the same blocker and binary flag but
// clause id c, for applying compaction remaps.
func (w Watch) Relocate(c z.C) Watch {
	v := uint64(w)
	v &= ^watchCMask
	v |= uint64(c) << watchLitBits
	return Watch(v)
}

func (w Watch) String() string {
	return fmt.Sprintf("Watch{C: %s, Other: %s, Bin: %t}", w.C(), w.Other(), w.IsBinary())
}
