// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package treeproc

import "github.com/connectome-lab/hctree/pkg/tree"

// PruneResult reports how many leaves and nodes a Prune call removed,
// plus the id-remap vectors Cleanup produced.
type PruneResult struct {
	PrunedLeaves int
	PrunedNodes  int
	LeafRemap    []int
	NodeRemap    []int
}

// Prune deletes the given leaves (by id) and any subtree that becomes
// empty as a result, updating sizes and hLevels by reconstruction.
func Prune(t *tree.Tree, leafIDs []int) (PruneResult, error) {
	idToIdx := make(map[int]int, len(t.Leaves))
	for i, l := range t.Leaves {
		idToIdx[l.ID] = i
	}

	var result PruneResult
	for _, id := range leafIDs {
		idx, ok := idToIdx[id]
		if !ok || t.Leaves[idx].Flag {
			continue
		}
		t.Leaves[idx].Flag = true
		result.PrunedLeaves++
		for n := t.Leaves[idx].Parent; n != -1; n = t.Nodes[n].Parent {
			t.Nodes[n].Size--
		}
		cascadeRemoveChild(t, t.Leaves[idx].Parent, tree.ChildRef{IsLeaf: true, Index: idx}, &result.PrunedNodes)
	}

	t.RecomputeHLevels()
	result.LeafRemap, result.NodeRemap = t.Cleanup()
	t.Rename("pruned")
	return result, nil
}

// cascadeRemoveChild removes ref from nodeIdx's children list; if that
// empties the node, it is flagged and removed from its own parent in
// turn.
func cascadeRemoveChild(t *tree.Tree, nodeIdx int, ref tree.ChildRef, prunedNodes *int) {
	if nodeIdx == -1 {
		return
	}
	n := &t.Nodes[nodeIdx]
	if n.Flag {
		return
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c == ref {
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
	if len(n.Children) == 0 {
		n.Flag = true
		*prunedNodes++
		cascadeRemoveChild(t, n.Parent, tree.ChildRef{IsLeaf: false, Index: nodeIdx}, prunedNodes)
	}
}
