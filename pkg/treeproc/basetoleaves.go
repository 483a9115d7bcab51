// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package treeproc

import (
	"math"

	"github.com/connectome-lab/hctree/pkg/tree"
)

// BaseToLeaves collapses every base-node's leaf children down to a single
// representative leaf (placed at the base-node's mean coordinate),
// flagging the rest, so the resulting tree's leaves are the original
// tree's base-nodes. Used when grid coarsening has discarded detailed
// per-voxel coordinates and a base-node-indexed leaf set is needed
// instead.
func BaseToLeaves(t *tree.Tree) error {
	for _, baseIdx := range t.AllBaseNodes() {
		base := &t.Nodes[baseIdx]
		if len(base.Children) == 0 {
			continue
		}
		keep := base.Children[0]
		for _, c := range base.Children[1:] {
			t.Leaves[c.Index].Flag = true
		}
		mean := t.MeanCoordinate(baseIdx)
		t.Leaves[keep.Index].Coord = roundCoord(mean)
		t.Leaves[keep.Index].Parent = base.Parent

		delta := base.Size - 1
		for n := base.Parent; n != -1; n = t.Nodes[n].Parent {
			t.Nodes[n].Size -= delta
		}
		if base.Parent != -1 {
			parent := &t.Nodes[base.Parent]
			for i, pc := range parent.Children {
				if !pc.IsLeaf && pc.Index == baseIdx {
					parent.Children[i] = tree.ChildRef{IsLeaf: true, Index: keep.Index}
				}
			}
		}
		base.Flag = true
	}
	t.RecomputeHLevels()
	t.Cleanup()
	t.Rename("base2leaves")
	return nil
}

func roundCoord(c [3]float64) [3]int {
	return [3]int{
		int(math.Round(c[0])),
		int(math.Round(c[1])),
		int(math.Round(c[2])),
	}
}
