// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package match implements the cross-tree meta-leaf matcher (C7): a
// base-node dissimilarity matrix gated by Euclidean cluster-center
// distance, greedy one-to-one matching, and pruning of the unmatched
// remainder so two trees end up with identical base-node counts.
package match

import (
	"context"
	"math"

	"github.com/samber/lo"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tree"
	"github.com/connectome-lab/hctree/pkg/treeproc"
)

// excludedDist is the dissimilarity value recorded for a pair whose
// Euclidean cluster-center distance exceeds DEucMax: the maximum, so it
// never wins the greedy matcher's minimum search.
const excludedDist = 1.0

// Matrix is an N1xN2 dissimilarity matrix over two trees' base-nodes, in
// base-node-index order as of the moment it was built.
type Matrix struct {
	Rows, Cols []int // base-node indices (into Tree.Nodes) for tree A, tree B
	Values     [][]float32
	Euclidean  [][]float32
}

// Config parameterizes matrix construction and matching.
type Config struct {
	DEucMax  float32 // Euclidean cluster-center distance gate
	TauMatch float32 // greedy-match acceptance threshold, default 0.9
	NStream  int     // not applied by BuildMatrix: each store log-transforms with its own streamline count
}

// BuildMatrix computes the N1xN2 dissimilarity matrix between every pair
// of base-nodes of a and b. Pairs whose Euclidean center distance exceeds
// cfg.DEucMax are left at the excluded maximum.
func BuildMatrix(ctx context.Context, storeA, storeB tractstore.Store, a, b *tree.Tree, cfg Config) (*Matrix, error) {
	rows := a.AllBaseNodes()
	cols := b.AllBaseNodes()
	if len(rows) == 0 || len(cols) == 0 {
		return nil, engerr.New(engerr.PreconditionViolated, "match: empty base-node set (rows=%d cols=%d)", len(rows), len(cols))
	}

	coordsA := make([][3]float64, len(rows))
	for i, n := range rows {
		coordsA[i] = a.MeanCoordinate(n)
	}
	coordsB := make([][3]float64, len(cols))
	for j, n := range cols {
		coordsB[j] = b.MeanCoordinate(n)
	}

	tractsA, err := loadBaseTracts(ctx, storeA, rows, cfg.NStream)
	if err != nil {
		return nil, err
	}
	tractsB, err := loadBaseTracts(ctx, storeB, cols, cfg.NStream)
	if err != nil {
		return nil, err
	}

	m := &Matrix{
		Rows:      rows,
		Cols:      cols,
		Values:    make([][]float32, len(rows)),
		Euclidean: make([][]float32, len(rows)),
	}
	for i := range rows {
		m.Values[i] = make([]float32, len(cols))
		m.Euclidean[i] = make([]float32, len(cols))
		for j := range cols {
			eu := euclidean(coordsA[i], coordsB[j])
			m.Euclidean[i][j] = float32(eu)
			if float32(eu) > cfg.DEucMax {
				m.Values[i][j] = excludedDist
				continue
			}
			d, err := tract.Distance(tractsA[i], tractsB[j])
			if err != nil {
				return nil, err
			}
			m.Values[i][j] = d
		}
	}
	return m, nil
}

func loadBaseTracts(ctx context.Context, store tractstore.Store, baseNodes []int, nstream int) ([]*tract.Tract, error) {
	out := make([]*tract.Tract, len(baseNodes))
	for i, idx := range baseNodes {
		t, err := store.ReadNodeTract(ctx, idx, true, true)
		if err != nil {
			return nil, engerr.Wrap(engerr.IOError, err, "match: read base-node tract %d", idx)
		}
		if !t.NormValid() {
			tract.ComputeNorm(t)
		}
		out[i] = t
	}
	return out, nil
}

func euclidean(p, q [3]float64) float64 {
	dx, dy, dz := p[0]-q[0], p[1]-q[1], p[2]-q[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Match records one accepted correspondence between base-node row i of
// tree A and column j of tree B.
type Match struct {
	RowNode, ColNode int // indices into Tree.Nodes
	TractDist        float32
	EucDist          float32
}

// Greedy repeatedly picks the matrix's global minimum unmatched entry and
// accepts it as a match, provided it doesn't exceed TauMatch, zeroing out
// its row and column before continuing. Matching stops the first time the
// minimum remaining entry exceeds the threshold.
func Greedy(m *Matrix, cfg Config) []Match {
	tau := cfg.TauMatch
	if tau == 0 {
		tau = 0.9
	}
	rowDone := make([]bool, len(m.Rows))
	colDone := make([]bool, len(m.Cols))
	var matches []Match

	for {
		bestI, bestJ := -1, -1
		var best float32 = excludedDist + 1
		for i := range m.Rows {
			if rowDone[i] {
				continue
			}
			for j := range m.Cols {
				if colDone[j] {
					continue
				}
				v := m.Values[i][j]
				if v < best || (v == best && (bestI == -1 || i < bestI || (i == bestI && j < bestJ))) {
					best, bestI, bestJ = v, i, j
				}
			}
		}
		if bestI == -1 || best > tau {
			break
		}
		rowDone[bestI] = true
		colDone[bestJ] = true
		matches = append(matches, Match{
			RowNode:   m.Rows[bestI],
			ColNode:   m.Cols[bestJ],
			TractDist: m.Values[bestI][bestJ],
			EucDist:   m.Euclidean[bestI][bestJ],
		})
	}
	return matches
}

// PruneUnmatched removes every base-node of a and b that did not appear
// in matches, via treeproc's leaf-prune + cleanup, so both trees end with
// identical, index-aligned base-node counts.
func PruneUnmatched(a, b *tree.Tree, matches []Match) error {
	matchedA := lo.SliceToMap(matches, func(m Match) (int, bool) { return m.RowNode, true })
	matchedB := lo.SliceToMap(matches, func(m Match) (int, bool) { return m.ColNode, true })

	if err := pruneUnmatchedBaseNodes(a, matchedA); err != nil {
		return err
	}
	if err := pruneUnmatchedBaseNodes(b, matchedB); err != nil {
		return err
	}
	return nil
}

func pruneUnmatchedBaseNodes(t *tree.Tree, matched map[int]bool) error {
	var leafIDs []int
	for _, n := range t.AllBaseNodes() {
		if matched[n] {
			continue
		}
		for _, li := range t.LeavesUnder(tree.ChildRef{IsLeaf: false, Index: n}) {
			leafIDs = append(leafIDs, t.Leaves[li].ID)
		}
	}
	if len(leafIDs) == 0 {
		return nil
	}
	_, err := treeproc.Prune(t, leafIDs)
	return err
}
