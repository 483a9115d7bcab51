// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package treeproc

import "github.com/connectome-lab/hctree/pkg/tree"

// collapseCollect returns nodeIdx's descendant children flattened into a
// single list: every internal descendant is flagged for removal and
// replaced by its own (recursively flattened) children, except base-nodes
// when keepBaseNodes is set, which survive as-is.
func collapseCollect(t *tree.Tree, nodeIdx int, keepBaseNodes bool) []tree.ChildRef {
	n := &t.Nodes[nodeIdx]
	var out []tree.ChildRef
	for _, c := range n.Children {
		if c.IsLeaf {
			out = append(out, c)
			continue
		}
		child := &t.Nodes[c.Index]
		if keepBaseNodes && child.HLevel == 1 {
			out = append(out, c)
			continue
		}
		grandchildren := collapseCollect(t, c.Index, keepBaseNodes)
		child.Flag = true
		out = append(out, grandchildren...)
	}
	return out
}

// FlattenSelection marks every internal descendant of each given subtree
// root for removal (except base-nodes when keepBaseNodes is set); the
// retained leaves (and, when keepBaseNodes is set, base-nodes) reattach
// directly to the root. The set of preserved leaves is unchanged and the
// result satisfies (T-1..T-4).
func FlattenSelection(t *tree.Tree, roots []int, keepBaseNodes bool) error {
	for _, rootIdx := range roots {
		children := collapseCollect(t, rootIdx, keepBaseNodes)
		for _, c := range children {
			if c.IsLeaf {
				t.Leaves[c.Index].Parent = rootIdx
			} else {
				t.Nodes[c.Index].Parent = rootIdx
			}
		}
		t.Nodes[rootIdx].Children = children
	}
	t.RecomputeHLevels()
	t.Cleanup()
	t.Rename("flattened")
	return nil
}
