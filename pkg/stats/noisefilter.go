// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"github.com/connectome-lab/hctree/pkg/tree"
	"github.com/connectome-lab/hctree/pkg/treeproc"
)

// NoiseLevels computes each base-node's matching-noise level: alpha
// scales its match tract-distance directly.
func NoiseLevels(t *tree.Tree, matchDist map[int]float32, alpha float64) map[int]float32 {
	out := make(map[int]float32, len(matchDist))
	for node, d := range matchDist {
		out[node] = float32(alpha) * d
	}
	return out
}

// FilterNoise walks the tree top-down from the root, comparing each
// node's own merge level against the size-weighted noise level of the
// base-nodes it contains (nodeNoiseLevel). A node at or above its noise
// level is trusted and its non-leaf children are checked in turn. A node
// below its noise level is matching noise: it is kept in place, but its
// level is overwritten with the noise value (clipped down to the
// parent's level when that is lower, since the parent was already found
// trustworthy) and the structure below it is flattened away. Children of
// a node already below noise are never visited, so one pass suffices.
// matchDist maps base-node index to its recorded match tract-distance.
func FilterNoise(t *tree.Tree, matchDist map[int]float32, alpha float64) error {
	if alpha <= 0 {
		return nil
	}
	root, ok := t.Root()
	if !ok {
		return nil
	}

	var flatSelection []int
	worklist := []int{root}
	for len(worklist) > 0 {
		idx := worklist[0]
		worklist = worklist[1:]
		n := &t.Nodes[idx]

		noise := nodeNoiseLevel(t, idx, matchDist, alpha)
		if float64(n.Level) >= noise {
			if t.IsBaseNode(idx) {
				continue
			}
			for _, c := range n.Children {
				if !c.IsLeaf {
					worklist = append(worklist, c.Index)
				}
			}
			continue
		}

		if n.Parent != -1 {
			if parentLevel := float64(t.Nodes[n.Parent].Level); parentLevel < noise {
				noise = parentLevel
			}
		}
		n.Level = float32(noise)
		flatSelection = append(flatSelection, idx)
	}

	if len(flatSelection) > 0 {
		if err := treeproc.FlattenSelection(t, flatSelection, true); err != nil {
			return err
		}
	}
	t.Rename("noisefiltered")
	return nil
}

func nodeNoiseLevel(t *tree.Tree, nodeIdx int, matchDist map[int]float32, alpha float64) float64 {
	bases := t.BaseNodes(nodeIdx)
	var num, den float64
	for _, bn := range bases {
		size := float64(t.Nodes[bn].Size)
		num += float64(matchDist[bn]) * size
		den += size
	}
	if den == 0 {
		return 0
	}
	return alpha * num / den
}
