// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/pkg/match"
	"github.com/connectome-lab/hctree/pkg/tree"
)

// TripletsResult holds the simple (topology-count) and size-weighted
// triplet agreement between two matched trees.
type TripletsResult struct {
	Unweighted float64
	Weighted   float64
	Triples    int
}

// Triplets computes the simple-triplets agreement over every unordered
// triple of matched base-nodes, subsampled with the given stride over the
// match index set. A triple's "topology" is which pair of its three
// members shares the smaller cophenetic distance (equivalently: which one
// is outside the smaller subtree at the LCA of all three); the triple
// agrees between trees a and b when that pair is the same in both.
func Triplets(a, b *tree.Tree, matches []match.Match, stride int) (TripletsResult, error) {
	if stride < 1 {
		return TripletsResult{}, engerr.New(engerr.BadArgument, "stats: stride must be >= 1, got %d", stride)
	}
	var sampled []match.Match
	for i := 0; i < len(matches); i += stride {
		sampled = append(sampled, matches[i])
	}
	n := len(sampled)
	if n < 3 {
		return TripletsResult{}, engerr.New(engerr.PreconditionViolated, "stats: need at least 3 sampled matches for a triplet, got %d", n)
	}

	var matchedTriples, totalTriples int
	var matchedWeight, totalWeight float64

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				mi, mj, mk := sampled[i], sampled[j], sampled[k]
				oddA, err := oddOneOut(a, mi.RowNode, mj.RowNode, mk.RowNode)
				if err != nil {
					return TripletsResult{}, err
				}
				oddB, err := oddOneOut(b, mi.ColNode, mj.ColNode, mk.ColNode)
				if err != nil {
					return TripletsResult{}, err
				}
				weight := float64(a.Nodes[mi.RowNode].Size + a.Nodes[mj.RowNode].Size + a.Nodes[mk.RowNode].Size)
				totalTriples++
				totalWeight += weight
				if oddA == oddB {
					matchedTriples++
					matchedWeight += weight
				}
			}
		}
	}

	return TripletsResult{
		Unweighted: float64(matchedTriples) / float64(totalTriples),
		Weighted:   matchedWeight / totalWeight,
		Triples:    totalTriples,
	}, nil
}

// oddOneOut returns which of the three base-nodes (0, 1, or 2) is outside
// the smaller subtree at their joint LCA: the one NOT in the pair with
// the smallest pairwise cophenetic distance.
func oddOneOut(t *tree.Tree, i, j, k int) (int, error) {
	dij, err := copheneticDistance(t, i, j)
	if err != nil {
		return 0, err
	}
	djk, err := copheneticDistance(t, j, k)
	if err != nil {
		return 0, err
	}
	dik, err := copheneticDistance(t, i, k)
	if err != nil {
		return 0, err
	}
	switch {
	case dij <= djk && dij <= dik:
		return 2, nil // i,j closest: k is the odd one out
	case djk <= dij && djk <= dik:
		return 0, nil // j,k closest: i is the odd one out
	default:
		return 1, nil // i,k closest: j is the odd one out
	}
}
