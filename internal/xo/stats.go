// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"fmt"
	"time"
)

// Stats aggregates solver counters.  Cumulative counters are reset in
// the components when read via S.ReadStats.
type Stats struct {
	Start time.Time
	Dur   time.Duration

	Sat    int64
	Unsat  int64
	Ended  int64
	Pinned int

	Added       int64
	Props       int64
	Guesses     int64
	Conflicts   int64
	Restarts    int64
	Learnts     int64
	LearntLits  int64
	Deleted     int64
	Reductions  int64
	Compactions int64
	Assumptions int64
	Failed      int64
}

func NewStats() *Stats {
	return &Stats{Start: time.Now()}
}

func (st *Stats) String() string {
	return fmt.Sprintf(
		"stats{dur: %s, props: %d, guesses: %d, conflicts: %d, restarts: %d, learnts: %d (%d lits), deleted: %d, reductions: %d, compactions: %d}",
		st.Dur, st.Props, st.Guesses, st.Conflicts, st.Restarts,
		st.Learnts, st.LearntLits, st.Deleted, st.Reductions, st.Compactions)
}
