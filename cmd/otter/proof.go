// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package main

import (
	"bufio"
	"fmt"
	"os"

	otter "github.com/teeaychem/otter-sat"
)

// proofWriter serializes the clause lifecycle stream in FRAT text form:
// o for originals, a for derived clauses with an l hint listing the
// antecedents, d for deletions, and f for the final marking.
type proofWriter struct {
	f *os.File
	w *bufio.Writer
}

func newProofWriter(path string) (*proofWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &proofWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (pw *proofWriter) handle(ev otter.Event) {
	switch ev.Kind {
	case otter.EventOriginal:
		fmt.Fprintf(pw.w, "o %d", ev.Id)
		pw.lits(ev)
		fmt.Fprintf(pw.w, " 0\n")
	case otter.EventLearn, otter.EventUnit:
		fmt.Fprintf(pw.w, "a %d", ev.Id)
		pw.lits(ev)
		fmt.Fprintf(pw.w, " 0")
		if len(ev.Ants) > 0 {
			fmt.Fprintf(pw.w, " l")
			for _, a := range ev.Ants {
				fmt.Fprintf(pw.w, " %d", a)
			}
			fmt.Fprintf(pw.w, " 0")
		}
		fmt.Fprintf(pw.w, "\n")
	case otter.EventDelete:
		fmt.Fprintf(pw.w, "d %d 0\n", ev.Id)
	case otter.EventFinal:
		fmt.Fprintf(pw.w, "f %d", ev.Id)
		pw.lits(ev)
		fmt.Fprintf(pw.w, " 0\n")
	}
}

func (pw *proofWriter) lits(ev otter.Event) {
	for _, m := range ev.Lits {
		fmt.Fprintf(pw.w, " %d", m.Dimacs())
	}
}

func (pw *proofWriter) Close() error {
	pw.w.Flush()
	return pw.f.Close()
}
