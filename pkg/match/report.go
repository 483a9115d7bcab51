// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package match

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"github.com/connectome-lab/hctree/pkg/tree"
)

// MatchQuality is the five-figure correspondence summary a human reviews
// after a match: mean and size-weighted matching dissimilarity, the
// fraction of leaves covered by the match, and mean/weighted Euclidean
// center distance.
type MatchQuality struct {
	MeanDist         float64
	WeightedDist     float64
	FractionMatched  float64
	MeanEucDist      float64
	WeightedEucDist  float64
}

// RateCorrespondence summarizes a completed match against the two
// pre-match trees (so FractionMatched reflects leaves covered out of the
// original totals, not the post-prune remainder).
func RateCorrespondence(a, b *tree.Tree, matches []Match) MatchQuality {
	if len(matches) == 0 {
		return MatchQuality{}
	}
	sizeOf := func(t *tree.Tree, nodeIdx int) float64 { return float64(t.Nodes[nodeIdx].Size) }

	sumDist := lo.SumBy(matches, func(m Match) float64 { return float64(m.TractDist) })
	sumEuc := lo.SumBy(matches, func(m Match) float64 { return float64(m.EucDist) })

	var weightedDistNum, weightedDistDen float64
	var weightedEucNum, weightedEucDen float64
	var matchedLeaves, totalLeaves float64

	for _, m := range matches {
		w := sizeOf(a, m.RowNode) + sizeOf(b, m.ColNode)
		weightedDistNum += float64(m.TractDist) * w
		weightedEucNum += float64(m.EucDist) * w
		weightedDistDen += w
		weightedEucDen += w
		matchedLeaves += sizeOf(a, m.RowNode)
	}
	for _, n := range a.AllBaseNodes() {
		totalLeaves += sizeOf(a, n)
	}

	q := MatchQuality{
		MeanDist:    sumDist / float64(len(matches)),
		MeanEucDist: sumEuc / float64(len(matches)),
	}
	if weightedDistDen > 0 {
		q.WeightedDist = weightedDistNum / weightedDistDen
		q.WeightedEucDist = weightedEucNum / weightedEucDen
	}
	if totalLeaves > 0 {
		q.FractionMatched = matchedLeaves / totalLeaves
	}
	return q
}

// ReportBaseNodes renders a base-node count/size-distribution summary as
// a plain-text table.
func ReportBaseNodes(t *tree.Tree) string {
	bases := t.AllBaseNodes()
	sizes := make([]int, len(bases))
	for i, n := range bases {
		sizes[i] = t.Nodes[n].Size
	}
	sort.Ints(sizes)

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"tree", "base nodes", "min size", "median size", "max size", "total leaves"})
	var min, max, total int
	if len(sizes) > 0 {
		min, max = sizes[0], sizes[len(sizes)-1]
	}
	for _, s := range sizes {
		total += s
	}
	median := 0
	if len(sizes) > 0 {
		median = sizes[len(sizes)/2]
	}
	tw.AppendRow(table.Row{t.Name, len(bases), min, median, max, total})
	return tw.Render()
}

// String renders a MatchQuality as a one-line summary.
func (q MatchQuality) String() string {
	return fmt.Sprintf("mean=%.4f weighted=%.4f fracMatched=%.4f meanEuc=%.4f weightedEuc=%.4f",
		q.MeanDist, q.WeightedDist, q.FractionMatched, q.MeanEucDist, q.WeightedEucDist)
}
