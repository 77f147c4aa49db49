// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package dimacs

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/teeaychem/otter-sat/z"
)

// IVis receives the contents of an incremental CNF file.  Clause
// literals arrive via Add and assumption literals via Assume, each
// sequence terminated by z.LitNull through the same method.  An
// assumption line marks a solve point.
type IVis interface {
	Add(m z.Lit)
	Assume(m z.Lit)
	Eof()
}

// ReadICnf reads incremental CNF ("p inccnf": clauses interleaved with
// "a ..." assumption lines) from r into vis.
func ReadICnf(r io.Reader, vis IVis) error {
	tz := newTokenizer(r)
	for {
		if err := tz.skipSpace(); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		b, err := tz.br.Peek(1)
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, "dimacs")
		}
		switch b[0] {
		case 'c':
			if err := tz.skipLine(); err != nil && err != io.EOF {
				return err
			}
		case 'p':
			line, err := tz.readLine()
			if err != nil {
				return err
			}
			// the inccnf problem line carries no counts
			if !strings.HasPrefix(strings.TrimSpace(line), "p inccnf") {
				return errors.Errorf("dimacs: bad problem line %q", line)
			}
		case 'a':
			tz.br.ReadByte()
			if err := readSeq(tz, vis.Assume); err != nil {
				return err
			}
		default:
			if err := readSeq(tz, vis.Add); err != nil {
				return err
			}
		}
	}
	vis.Eof()
	return nil
}

// readSeq feeds integers to sink until a terminating 0, which is also
// delivered.  EOF closes an open sequence.
func readSeq(tz *tokenizer, sink func(z.Lit)) error {
	for {
		d, err := tz.next()
		if err == io.EOF {
			sink(z.LitNull)
			return nil
		}
		if err != nil {
			return err
		}
		sink(z.Dimacs2Lit(d))
		if d == 0 {
			return nil
		}
	}
}
