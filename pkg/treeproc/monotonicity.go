// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package treeproc implements the tree processor (C4): the three
// monotonicity-enforcement strategies, debinarization, flatten-selection,
// pruning, base-to-leaves collapse, and grid coarsening that turn a raw
// binary dendrogram from the builder into a final, monotonic,
// debinarized, base-node-preserving tree.
package treeproc

import (
	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/pkg/tree"
)

// maxErrorMult is the documented upper bound on the weighted-monotonicity
// tolerance multiplier; behavior above it is undocumented in the source
// this processor was ported from, so the cap is preserved rather than
// guessed past.
const maxErrorMult = 100

// ForceMonotonicityUp walks the tree bottom-up; any child whose level
// exceeds its parent's has its recorded level lowered to the parent's.
func ForceMonotonicityUp(t *tree.Tree) error {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Flag {
			continue
		}
		for _, c := range n.Children {
			if c.IsLeaf {
				continue
			}
			child := &t.Nodes[c.Index]
			if child.Level > n.Level {
				child.Level = n.Level
			}
		}
	}
	t.Rename("monoUp")
	return nil
}

// ForceMonotonicityDown walks the tree top-down from the root; as the walk
// returns from each child, any parent below that child is raised to the
// child's level.
func ForceMonotonicityDown(t *tree.Tree) error {
	root, ok := t.Root()
	if !ok {
		return engerr.New(engerr.PreconditionViolated, "ForceMonotonicityDown: empty tree")
	}
	var walk func(nodeIdx int)
	walk = func(nodeIdx int) {
		n := &t.Nodes[nodeIdx]
		for _, c := range n.Children {
			if c.IsLeaf {
				continue
			}
			walk(c.Index)
			child := &t.Nodes[c.Index]
			if child.Level > n.Level {
				n.Level = child.Level
			}
		}
	}
	walk(root)
	t.Rename("monoDown")
	return nil
}

// ForceMonotonicityWeighted is the iterative fix: on detecting a
// violation at a node, the parent's level becomes a size-weighted mean of
// the non-violating children (at the parent's level) and the violating
// children (at their own, higher levels); descendants above the new level
// are then lowered to it. errorMult sets the tolerance
// epsilon = 1e-5 * errorMult that prevents infinite oscillation;
// errorMult must be >= 1 and is capped at 100.
func ForceMonotonicityWeighted(t *tree.Tree, errorMult float64) error {
	if errorMult < 1 {
		return engerr.New(engerr.BadArgument, "ForceMonotonicityWeighted: errorMult %v < 1", errorMult)
	}
	if errorMult > maxErrorMult {
		errorMult = maxErrorMult
	}
	eps := float32(1e-5 * errorMult)

	var clip func(c tree.ChildRef, limit float32)
	clip = func(c tree.ChildRef, limit float32) {
		if c.IsLeaf || t.Nodes[c.Index].Level <= limit {
			return
		}
		t.Nodes[c.Index].Level = limit
		for _, gc := range t.Nodes[c.Index].Children {
			clip(gc, limit)
		}
	}

	changed := true
	for changed {
		changed = false
		for i := range t.Nodes {
			n := &t.Nodes[i]
			if n.Flag || len(n.Children) == 0 {
				continue
			}
			var weightedSum float64
			var totalSize float64
			violated := false
			for _, c := range n.Children {
				var level float32
				var size int
				if c.IsLeaf {
					level = 0
					size = 1
				} else {
					child := &t.Nodes[c.Index]
					size = child.Size
					if child.Level > n.Level+eps {
						level = child.Level
						violated = true
					} else {
						level = n.Level
					}
				}
				weightedSum += float64(level) * float64(size)
				totalSize += float64(size)
			}
			if !violated || totalSize == 0 {
				continue
			}
			newLevel := float32(weightedSum / totalSize)
			if newLevel > n.Level+eps {
				n.Level = newLevel
				changed = true
				for _, c := range n.Children {
					clip(c, newLevel)
				}
			}
		}
	}
	t.Rename("monoWeighted")
	return nil
}
