// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package main

import (
	"io"
	"os"

	otter "github.com/teeaychem/otter-sat"
	"github.com/teeaychem/otter-sat/dimacs"
	"github.com/teeaychem/otter-sat/z"
)

// icnfRunner solves an incremental CNF: clauses accumulate and each
// assumption line triggers a solve under those assumptions.
type icnfRunner struct {
	s    *otter.Otter
	as   []z.Lit
	last int
}

func runICnf(cfg *otter.Config, r io.Reader) (int, error) {
	ir := &icnfRunner{s: otter.NewWith(cfg)}
	if err := dimacs.ReadICnf(r, ir); err != nil {
		return 0, err
	}
	return ir.last, nil
}

func (ir *icnfRunner) Add(m z.Lit) {
	ir.s.Add(m)
}

func (ir *icnfRunner) Assume(m z.Lit) {
	if m != z.LitNull {
		ir.as = append(ir.as, m)
		return
	}
	ir.s.Assume(ir.as...)
	ir.as = ir.as[:0]
	res := ir.s.GoSolve().Try(opts.timeout)
	ir.last = res
	reportResult(res)
	if res == 1 && opts.model {
		outputModel(os.Stdout, ir.s)
	}
	if res == -1 && opts.failed {
		outputFailed(os.Stdout, ir.s.Why(nil))
	}
	ir.s.Refresh()
}

func (ir *icnfRunner) Eof() {}
