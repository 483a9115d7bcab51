// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tree

// Cleanup compacts the id space, dropping every flagged leaf and node and
// relabeling the survivors with contiguous ids (T-5). It returns the
// old-index-to-new-index remap for leaves and nodes (-1 for a dropped
// entry) so callers holding external references can rewrite them.
//
// Cleanup assumes every node appears later in Nodes than all of its
// descendants, the order AddNode and the tree-file reader both maintain;
// it walks Nodes once in that order when recomputing hLevel is not
// needed (hLevel is preserved verbatim across a pure compaction).
func (t *Tree) Cleanup() (leafRemap, nodeRemap []int) {
	leafRemap = make([]int, len(t.Leaves))
	newLeaves := make([]Leaf, 0, len(t.Leaves))
	for i, l := range t.Leaves {
		if l.Flag {
			leafRemap[i] = -1
			continue
		}
		leafRemap[i] = len(newLeaves)
		newLeaves = append(newLeaves, l)
	}

	nodeRemap = make([]int, len(t.Nodes))
	newNodes := make([]Node, 0, len(t.Nodes))
	for i, n := range t.Nodes {
		if n.Flag {
			nodeRemap[i] = -1
			continue
		}
		nodeRemap[i] = len(newNodes)
		newNodes = append(newNodes, n)
	}

	for i := range newLeaves {
		newLeaves[i].ID = i
		if newLeaves[i].Parent != -1 {
			newLeaves[i].Parent = nodeRemap[newLeaves[i].Parent]
		}
	}
	for i := range newNodes {
		n := &newNodes[i]
		n.ID = i
		if n.Parent != -1 {
			n.Parent = nodeRemap[n.Parent]
		}
		children := make([]ChildRef, 0, len(n.Children))
		for _, c := range n.Children {
			if c.IsLeaf {
				if leafRemap[c.Index] == -1 {
					continue
				}
				children = append(children, ChildRef{IsLeaf: true, Index: leafRemap[c.Index]})
			} else {
				if nodeRemap[c.Index] == -1 {
					continue
				}
				children = append(children, ChildRef{IsLeaf: false, Index: nodeRemap[c.Index]})
			}
		}
		n.Children = children
	}

	t.Leaves = newLeaves
	t.Nodes = newNodes
	return leafRemap, nodeRemap
}

// RecomputeHLevels recomputes every live node's hLevel from its children,
// in ascending Nodes index order (children always precede their parent
// in that order). Used after structural edits that may change a node's
// child set without going through AddNode.
func (t *Tree) RecomputeHLevels() {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Flag {
			continue
		}
		hLevel := 0
		for _, c := range n.Children {
			if !c.IsLeaf && t.Nodes[c.Index].HLevel > hLevel {
				hLevel = t.Nodes[c.Index].HLevel
			}
		}
		n.HLevel = hLevel + 1
	}
}
