// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stats implements the comparison statistics (C8): weighted and
// unweighted cophenetic correlation, simple and size-weighted triplets,
// and the matching-noise filter that trims one tree's internal structure
// down to the resolution its match against another tree actually
// supports.
package stats

import (
	"math"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/pkg/match"
	"github.com/connectome-lab/hctree/pkg/tree"
)

// copheneticDistance returns the cophenetic distance between two
// base-nodes: the level of the lowest common ancestor of any leaf under
// each (every such pair shares the same LCA level, since the base-nodes
// are disjoint clusters).
func copheneticDistance(t *tree.Tree, nodeA, nodeB int) (float32, error) {
	leavesA := t.LeavesUnder(tree.ChildRef{IsLeaf: false, Index: nodeA})
	leavesB := t.LeavesUnder(tree.ChildRef{IsLeaf: false, Index: nodeB})
	if len(leavesA) == 0 || len(leavesB) == 0 {
		return 0, engerr.New(engerr.PreconditionViolated, "stats: empty base-node %d or %d", nodeA, nodeB)
	}
	d, ok := t.Distance(leavesA[0], leavesB[0])
	if !ok {
		return 0, engerr.New(engerr.Corruption, "stats: no common ancestor between base-nodes %d and %d", nodeA, nodeB)
	}
	return d, nil
}

// CPCCResult holds the unweighted and size-weighted cophenetic
// correlation between two matched trees.
type CPCCResult struct {
	Unweighted float64
	Weighted   float64
	Pairs      int
}

// TCPCC computes the tree cophenetic correlation over every pair of
// matched base-nodes, excluding pairs whose cophenetic distance in either
// tree falls at or below that endpoint's matching-noise level.
func TCPCC(a, b *tree.Tree, matches []match.Match, noiseA, noiseB map[int]float32) (CPCCResult, error) {
	n := len(matches)
	if n < 2 {
		return CPCCResult{}, engerr.New(engerr.PreconditionViolated, "stats: need at least 2 matches for a correlation, got %d", n)
	}

	var d1, d2, w1, w2 []float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			mi, mj := matches[i], matches[j]
			da, err := copheneticDistance(a, mi.RowNode, mj.RowNode)
			if err != nil {
				return CPCCResult{}, err
			}
			db, err := copheneticDistance(b, mi.ColNode, mj.ColNode)
			if err != nil {
				return CPCCResult{}, err
			}
			if belowNoise(noiseA, mi.RowNode, mj.RowNode, da) || belowNoise(noiseB, mi.ColNode, mj.ColNode, db) {
				continue
			}
			sizeA := float64(a.Nodes[mi.RowNode].Size + a.Nodes[mj.RowNode].Size)
			sizeB := float64(b.Nodes[mi.ColNode].Size + b.Nodes[mj.ColNode].Size)

			d1 = append(d1, float64(da))
			d2 = append(d2, float64(db))
			w1 = append(w1, float64(da)*sizeA)
			w2 = append(w2, float64(db)*sizeB)
		}
	}
	if len(d1) < 2 {
		return CPCCResult{}, engerr.New(engerr.PreconditionViolated, "stats: matching-noise filter excluded too many pairs (%d left)", len(d1))
	}
	return CPCCResult{
		Unweighted: pearson(d1, d2),
		Weighted:   pearson(w1, w2),
		Pairs:      len(d1),
	}, nil
}

func belowNoise(noise map[int]float32, a, b int, d float32) bool {
	if noise == nil {
		return false
	}
	return d <= noise[a] || d <= noise[b]
}

// pearson computes the Pearson product-moment correlation coefficient.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n

	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
