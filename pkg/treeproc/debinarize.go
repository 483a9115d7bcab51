// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package treeproc

import "github.com/connectome-lab/hctree/pkg/tree"

// Debinarize collapses any child whose recorded level equals its
// parent's level into the parent: the grandchildren replace the child in
// the parent's child list, and the collapsed node is flagged for
// removal. When keepBaseNodes is true, nodes with hLevel==1 are excluded
// from collapse so meta-leaves survive.
func Debinarize(t *tree.Tree, keepBaseNodes bool) error {
	changed := true
	for changed {
		changed = false
		for i := range t.Nodes {
			n := &t.Nodes[i]
			if n.Flag {
				continue
			}
			var newChildren []tree.ChildRef
			collapsedAny := false
			for _, c := range n.Children {
				if c.IsLeaf {
					newChildren = append(newChildren, c)
					continue
				}
				child := &t.Nodes[c.Index]
				if child.Flag || child.Level != n.Level || (keepBaseNodes && child.HLevel == 1) {
					newChildren = append(newChildren, c)
					continue
				}
				for _, gc := range child.Children {
					if gc.IsLeaf {
						t.Leaves[gc.Index].Parent = i
					} else {
						t.Nodes[gc.Index].Parent = i
					}
				}
				newChildren = append(newChildren, child.Children...)
				child.Flag = true
				collapsedAny = true
				changed = true
			}
			if collapsedAny {
				n.Children = newChildren
				// Children may themselves now be at the parent's level in
				// a later pass if they were just re-parented; the outer
				// loop re-scans until a fixed point is reached.
			}
		}
	}
	t.RecomputeHLevels()
	t.Cleanup()
	t.Rename("debinarized")
	return nil
}
