// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package otter

import (
	"testing"

	"github.com/teeaychem/otter-sat/z"
)

// 9 rows, 9 cols, 9 boxes, 9 numbers: one variable for each triple
// (row, col, n) indicating whether the number n appears at (row, col).
func sudokuLit(row, col, num int) z.Lit {
	n := num
	n += col * 9
	n += row * 81
	return z.Var(n + 1).Pos()
}

func addSudoku(o *Otter) {
	// every position on the board has a number
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			for n := 0; n < 9; n++ {
				o.Add(sudokuLit(row, col, n))
			}
			o.Add(0)
		}
	}

	// every row has unique numbers
	for n := 0; n < 9; n++ {
		for row := 0; row < 9; row++ {
			for colA := 0; colA < 9; colA++ {
				a := sudokuLit(row, colA, n)
				for colB := colA + 1; colB < 9; colB++ {
					b := sudokuLit(row, colB, n)
					o.Add(a.Not())
					o.Add(b.Not())
					o.Add(0)
				}
			}
		}
	}

	// every column has unique numbers
	for n := 0; n < 9; n++ {
		for col := 0; col < 9; col++ {
			for rowA := 0; rowA < 9; rowA++ {
				a := sudokuLit(rowA, col, n)
				for rowB := rowA + 1; rowB < 9; rowB++ {
					b := sudokuLit(rowB, col, n)
					o.Add(a.Not())
					o.Add(b.Not())
					o.Add(0)
				}
			}
		}
	}

	// every box has unique numbers
	box := func(x, y int) {
		offs := []struct{ x, y int }{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}}
		for n := 0; n < 9; n++ {
			for i, offA := range offs {
				a := sudokuLit(x+offA.x, y+offA.y, n)
				for j := i + 1; j < len(offs); j++ {
					offB := offs[j]
					b := sudokuLit(x+offB.x, y+offB.y, n)
					o.Add(a.Not())
					o.Add(b.Not())
					o.Add(0)
				}
			}
		}
	}
	for x := 0; x < 9; x += 3 {
		for y := 0; y < 9; y += 3 {
			box(x, y)
		}
	}
}

func TestSudoku(t *testing.T) {
	o := New()
	addSudoku(o)
	if o.Solve() != 1 {
		t.Fatalf("unsat sudoku")
	}
	var board [9][9]int
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			board[row][col] = -1
			for n := 0; n < 9; n++ {
				if o.Value(sudokuLit(row, col, n)) {
					if board[row][col] != -1 {
						t.Fatalf("two numbers at (%d,%d)", row, col)
					}
					board[row][col] = n
				}
			}
			if board[row][col] == -1 {
				t.Fatalf("no number at (%d,%d)", row, col)
			}
		}
	}
	for i := 0; i < 9; i++ {
		var rowSeen, colSeen [9]bool
		for j := 0; j < 9; j++ {
			if rowSeen[board[i][j]] {
				t.Errorf("row %d repeats %d", i, board[i][j]+1)
			}
			rowSeen[board[i][j]] = true
			if colSeen[board[j][i]] {
				t.Errorf("col %d repeats %d", i, board[j][i]+1)
			}
			colSeen[board[j][i]] = true
		}
	}
}

func BenchmarkSudoku(b *testing.B) {
	for i := 0; i < b.N; i++ {
		o := New()
		addSudoku(o)
		if o.Solve() != 1 {
			b.Fatal("unsat sudoku")
		}
	}
}
