// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package gen

import (
	"math/rand"

	"github.com/teeaychem/otter-sat/inter"
	"github.com/teeaychem/otter-sat/z"
)

// Color creates a formula asking if the graph g, given as a symmetric
// edge list, can be colored with k colors.  Every node must have a color
// and no 2 adjacent nodes may have the same color.  The variable for
// node n having color c is ColorVar(n, c, k).
func Color(dst inter.Adder, g [][]int, k int) {
	for i := range g {
		for j := 0; j < k; j++ {
			dst.Add(ColorVar(i, j, k))
		}
		dst.Add(0)
	}
	for a, es := range g {
		for _, b := range es {
			if b >= a {
				continue
			}
			for c := 0; c < k; c++ {
				dst.Add(ColorVar(a, c, k).Not())
				dst.Add(ColorVar(b, c, k).Not())
				dst.Add(0)
			}
		}
	}
}

// ColorVar returns the variable stating node n has color c among k
// colors.
func ColorVar(n, c, k int) z.Lit {
	return z.Var(n*k + c + 1).Pos()
}

// Clique returns the complete graph on n nodes as a symmetric edge
// list.
func Clique(n int) [][]int {
	g := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			g[i] = append(g[i], j)
		}
	}
	return g
}

// RandColor creates a formula asking if a random (simple) graph with n
// nodes and m edges can be colored with k colors.
func RandColor(dst inter.Adder, n, m, k int) {
	Color(dst, RandGraph(n, m), k)
}

type edge struct {
	a, b int
}

// RandGraph creates a simple (undirected) random graph with n nodes and m
// edges.  If m > n*(n-1)/2, RandGraph returns nil.
//
// The result is in the form of an edge list, namely each node is idenitified
// by an integer in [0..n) and the edgelist for node i is result[i].  There
// are no multi-edges, no self edges, and sampling is done without
// replacement.
func RandGraph(n, m int) [][]int {
	if m > n*(n-1)/2 {
		return nil
	}
	ns := make([][]int, n)

	es := make([]edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			es = append(es, edge{i, j})
		}
	}

	for i := 0; i < m; i++ {
		el := len(es)
		j := rand.Intn(el)
		e := es[j]
		ns[e.a] = append(ns[e.a], e.b)
		el--
		es[j], es[el] = es[el], es[j]
		es = es[:el]
	}
	// make it symmetric
	for i, es := range ns {
		for _, j := range es {
			ns[j] = append(ns[j], i)
		}
	}
	return ns
}
