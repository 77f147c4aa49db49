// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"github.com/teeaychem/otter-sat/z"
)

// DimacsVis adapts a solver to the dimacs reader's visitor interface.
type DimacsVis struct {
	// Config, if set, configures the created solver.
	Config *Config

	s *S
}

func (d *DimacsVis) Init(nVars, nClauses int) {
	cfg := d.Config
	if cfg == nil {
		cfg = NewConfig()
	}
	if nVars == 0 {
		nVars = 128
	}
	if nClauses == 0 {
		nClauses = nVars * 8
	}
	d.s = NewSVc(cfg, nVars, nClauses)
}

func (d *DimacsVis) Add(m z.Lit) {
	d.s.Add(m)
}

func (d *DimacsVis) Eof() {}

// S returns the solver built from the input.
func (d *DimacsVis) S() *S {
	return d.s
}
