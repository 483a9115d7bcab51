// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package treeproc

import (
	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/pkg/tree"
)

// CoarsenTree maps each leaf coordinate to floor(c/r); for any group of
// original seeds mapping to the same coarsened coordinate, one
// representative is kept (moved to the coarsened coordinate) and the
// rest are flagged for removal. Fails with BadArgument when r < 2.
//
// The returned map gives, for every original leaf id (kept or dropped),
// the coarsened coordinate it was grouped under, so a caller can rewrite
// external per-voxel annotations that reference the original grid.
func CoarsenTree(t *tree.Tree, r int) (map[int][3]int, error) {
	if r < 2 {
		return nil, engerr.New(engerr.BadArgument, "CoarsenTree: factor %d < 2", r)
	}

	groups := make(map[[3]int][]int)
	for i, l := range t.Leaves {
		if l.Flag {
			continue
		}
		coarse := [3]int{l.Coord[0] / r, l.Coord[1] / r, l.Coord[2] / r}
		groups[coarse] = append(groups[coarse], i)
	}

	remap := make(map[int][3]int, len(t.Leaves))
	for coarse, members := range groups {
		keepIdx := members[0]
		remap[t.Leaves[keepIdx].ID] = coarse
		t.Leaves[keepIdx].Coord = coarse

		for _, idx := range members[1:] {
			remap[t.Leaves[idx].ID] = coarse
			t.Leaves[idx].Flag = true
			for n := t.Leaves[idx].Parent; n != -1; n = t.Nodes[n].Parent {
				t.Nodes[n].Size--
			}
			var prunedNodes int
			cascadeRemoveChild(t, t.Leaves[idx].Parent, tree.ChildRef{IsLeaf: true, Index: idx}, &prunedNodes)
		}
	}

	t.RecomputeHLevels()
	t.Cleanup()
	t.Rename("coarsened")
	return remap, nil
}
