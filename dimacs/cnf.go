// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

// Package dimacs reads DIMACS formatted CNF and incremental CNF,
// feeding clauses to a visitor literal by literal.
package dimacs

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/teeaychem/otter-sat/z"
)

// Vis receives the contents of a CNF file.  Add is called for each
// literal of each clause, with z.LitNull terminating a clause; an
// explicit empty clause is a bare terminator.
type Vis interface {
	// Init is called once, before any Add, with the header counts, or
	// (0, 0) when there is no header.
	Init(nVars, nClauses int)

	Add(m z.Lit)

	Eof()
}

// ReadCnf reads CNF from r into vis, tolerating a missing header, a
// missing final 0, and fewer clauses than declared.
func ReadCnf(r io.Reader, vis Vis) error {
	return ReadCnfStrict(r, vis, false)
}

// ReadCnfStrict reads CNF from r into vis.  In strict mode the header
// is required and the atom and clause counts must hold.
func ReadCnfStrict(r io.Reader, vis Vis, strict bool) error {
	tz := newTokenizer(r)
	nVars, nClauses, hasHeader, err := tz.header()
	if err != nil {
		return err
	}
	if strict && !hasHeader {
		return errors.New("dimacs: missing header")
	}
	vis.Init(nVars, nClauses)

	open := false
	clauses := 0
	for {
		d, err := tz.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if d == 0 {
			vis.Add(z.LitNull)
			open = false
			clauses++
			continue
		}
		if strict && hasHeader && abs(d) > nVars {
			return errors.Errorf("dimacs: literal %d beyond declared %d atoms", d, nVars)
		}
		vis.Add(z.Dimacs2Lit(d))
		open = true
	}
	if open {
		// final 0 missing at EOF
		vis.Add(z.LitNull)
		clauses++
	}
	if strict && clauses != nClauses {
		return errors.Errorf("dimacs: read %d clauses, header declared %d", clauses, nClauses)
	}
	vis.Eof()
	return nil
}

// tokenizer reads whitespace separated integers, skipping comment lines
// and recognizing problem lines.
type tokenizer struct {
	br *bufio.Reader
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{br: bufio.NewReader(r)}
}

// header consumes leading comments and, if present, the problem line.
func (tz *tokenizer) header() (nVars, nClauses int, ok bool, err error) {
	for {
		if err := tz.skipSpace(); err != nil {
			if err == io.EOF {
				return 0, 0, false, nil
			}
			return 0, 0, false, err
		}
		b, err := tz.br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return 0, 0, false, nil
			}
			return 0, 0, false, errors.Wrap(err, "dimacs")
		}
		switch b[0] {
		case 'c':
			if err := tz.skipLine(); err != nil {
				return 0, 0, false, err
			}
		case 'p':
			line, err := tz.readLine()
			if err != nil {
				return 0, 0, false, err
			}
			fields := strings.Fields(line)
			if len(fields) != 4 || fields[0] != "p" || fields[1] != "cnf" {
				return 0, 0, false, errors.Errorf("dimacs: bad problem line %q", line)
			}
			nv, e1 := strconv.Atoi(fields[2])
			nc, e2 := strconv.Atoi(fields[3])
			if e1 != nil || e2 != nil || nv < 0 || nc < 0 {
				return 0, 0, false, errors.Errorf("dimacs: bad problem line %q", line)
			}
			return nv, nc, true, nil
		default:
			return 0, 0, false, nil
		}
	}
}

// next returns the next integer token, skipping comment lines.
func (tz *tokenizer) next() (int, error) {
	for {
		if err := tz.skipSpace(); err != nil {
			return 0, err
		}
		b, err := tz.br.Peek(1)
		if err != nil {
			return 0, err
		}
		if b[0] == 'c' {
			if err := tz.skipLine(); err != nil {
				return 0, err
			}
			continue
		}
		return tz.readInt()
	}
}

func (tz *tokenizer) readInt() (int, error) {
	neg := false
	b, err := tz.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == '-' {
		neg = true
		b, err = tz.br.ReadByte()
		if err != nil {
			return 0, errors.New("dimacs: dangling '-'")
		}
	}
	if b < '0' || b > '9' {
		return 0, errors.Errorf("dimacs: malformed literal at %q", string(b))
	}
	n := 0
	for {
		if b < '0' || b > '9' {
			tz.br.UnreadByte()
			break
		}
		n = n*10 + int(b-'0')
		if n > int(z.VarMax) {
			return 0, errors.Errorf("dimacs: atom out of range near %d", n)
		}
		b, err = tz.br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if neg {
		n = -n
	}
	return n, nil
}

func (tz *tokenizer) skipSpace() error {
	for {
		b, err := tz.br.ReadByte()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			tz.br.UnreadByte()
			return nil
		}
	}
}

func (tz *tokenizer) skipLine() error {
	_, err := tz.readLine()
	return err
}

func (tz *tokenizer) readLine() (string, error) {
	line, err := tz.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "dimacs")
	}
	return line, nil
}

func abs(d int) int {
	if d < 0 {
		return -d
	}
	return d
}
