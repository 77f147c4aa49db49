// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package z

import "fmt"

// C identifies a clause in the solver's clause arena.  Values are stable
// between compactions; a compaction supplies a remap from old to new
// values which every holder of a C must apply.
type C uint32

const (
	// CNull identifies no clause.  As a reason it marks a decision,
	// an assumption, or a level 0 fact.
	CNull C = 0

	// CInf identifies the empty clause, which has no arena storage.
	CInf C = 1<<32 - 1
)

func (c C) String() string {
	switch c {
	case CNull:
		return "c<nil>"
	case CInf:
		return "c<bot>"
	default:
		return fmt.Sprintf("c%d", uint32(c))
	}
}
