// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tree implements the hierarchical cluster-tree data model (C3):
// flat leaf/node arrays addressed by index, tagged child references, the
// invariants (T-1..T-5), and the structural queries (LCA, cophenetic
// distance, pre-order traversal, mean coordinate, base-node listing) the
// processor and comparator build on.
//
// Nodes and leaves are stored in flat slices and referenced by index
// rather than pointer, the way the teacher's memorystore keeps a tree of
// buffers addressed through a map rather than linked objects — here a
// slice index plays the same role, cheaper to serialize and to remap
// after a cleanup pass.
package tree

import "github.com/connectome-lab/hctree/internal/engerr"

// ChildRef is the tagged sum type {Leaf(id)|Node(id)} from the design
// notes: a child of a Node is either a leaf or another node, distinguished
// by IsLeaf rather than by interface or pointer type.
type ChildRef struct {
	IsLeaf bool
	Index  int // index into Tree.Leaves or Tree.Nodes
}

// Leaf is a seed voxel: id, coordinate, parent node index, size=1, level=0.
type Leaf struct {
	ID     int
	Coord  [3]int
	Parent int // index into Tree.Nodes; -1 only for a single-leaf tree
	Flag   bool
}

// Node is an internal cluster: parent, ordered children, aggregate size,
// the distance level at which its children were merged, and hierarchical
// level (max child hLevel + 1).
type Node struct {
	ID       int
	Parent   int // index into Tree.Nodes; -1 for the root
	Children []ChildRef
	Size     int
	Level    float32
	HLevel   int
	Flag     bool
}

// Tree is the flat leaf/node store plus the header fields persisted by
// the text serialization.
type Tree struct {
	Leaves    []Leaf
	Nodes     []Node
	Discarded [][3]int
	GridDims  [3]int
	LogFactor float64
	NStreams  int
	CPCC      float64
	Name      string
}

// New creates an empty tree with the given provenance tag.
func New(name string) *Tree {
	return &Tree{Name: name}
}

// Rename appends to the mutable tree-name tag, the way each processor
// stamps its own suffix so output files reflect their provenance.
func (t *Tree) Rename(suffix string) {
	if t.Name == "" {
		t.Name = suffix
		return
	}
	t.Name = t.Name + "_" + suffix
}

// AddLeaf appends a new leaf at coord with no parent yet and returns its
// index. Caller must attach it to a node via AddNode or SetParent.
func (t *Tree) AddLeaf(coord [3]int) int {
	idx := len(t.Leaves)
	t.Leaves = append(t.Leaves, Leaf{ID: idx, Coord: coord, Parent: -1})
	return idx
}

// AddNode creates a new internal node with the given children and merge
// level, computing size and hLevel from the children and back-patching
// each child's parent pointer. Fails with BadArgument if children is empty.
func (t *Tree) AddNode(children []ChildRef, level float32) (int, error) {
	if len(children) == 0 {
		return 0, engerr.New(engerr.BadArgument, "AddNode: empty children list")
	}
	idx := len(t.Nodes)
	size := 0
	hLevel := 0
	for _, c := range children {
		if c.IsLeaf {
			if c.Index < 0 || c.Index >= len(t.Leaves) {
				return 0, engerr.New(engerr.Corruption, "AddNode: child leaf index %d out of range", c.Index)
			}
			size += 1
		} else {
			if c.Index < 0 || c.Index >= len(t.Nodes) {
				return 0, engerr.New(engerr.Corruption, "AddNode: child node index %d out of range", c.Index)
			}
			child := &t.Nodes[c.Index]
			size += child.Size
			if child.HLevel > hLevel {
				hLevel = child.HLevel
			}
		}
	}
	t.Nodes = append(t.Nodes, Node{
		ID:       idx,
		Parent:   -1,
		Children: append([]ChildRef(nil), children...),
		Size:     size,
		Level:    level,
		HLevel:   hLevel + 1,
	})
	for _, c := range children {
		if c.IsLeaf {
			t.Leaves[c.Index].Parent = idx
		} else {
			t.Nodes[c.Index].Parent = idx
		}
	}
	return idx, nil
}

// Root returns the index of the unique node with no parent, or ok=false
// for an empty or single-leaf tree.
func (t *Tree) Root() (int, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].Parent == -1 && !t.Nodes[i].Flag {
			return i, true
		}
	}
	return 0, false
}

// IsBaseNode reports whether node i has hLevel 1 (all children are leaves).
func (t *Tree) IsBaseNode(i int) bool {
	return t.Nodes[i].HLevel == 1
}

// CheckInvariants verifies (T-1) and (T-2) over the live (non-flagged)
// portion of the tree, returning a Corruption error describing the first
// violation found.
func (t *Tree) CheckInvariants() error {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Flag {
			continue
		}
		if len(n.Children) == 0 {
			return engerr.New(engerr.Corruption, "node %d has no children", n.ID)
		}
		size := 0
		hLevel := 0
		for _, c := range n.Children {
			if c.IsLeaf {
				if c.Index < 0 || c.Index >= len(t.Leaves) {
					return engerr.New(engerr.Corruption, "node %d: dangling leaf child %d", n.ID, c.Index)
				}
				if t.Leaves[c.Index].Parent != i {
					return engerr.New(engerr.Corruption, "leaf %d parent mismatch", t.Leaves[c.Index].ID)
				}
				size++
			} else {
				if c.Index < 0 || c.Index >= len(t.Nodes) {
					return engerr.New(engerr.Corruption, "node %d: dangling node child %d", n.ID, c.Index)
				}
				child := &t.Nodes[c.Index]
				if child.Parent != i {
					return engerr.New(engerr.Corruption, "node %d parent mismatch", child.ID)
				}
				size += child.Size
				if child.HLevel > hLevel {
					hLevel = child.HLevel
				}
			}
		}
		if size != n.Size {
			return engerr.New(engerr.Corruption, "node %d: size %d != sum of children %d", n.ID, n.Size, size)
		}
		if hLevel+1 != n.HLevel {
			return engerr.New(engerr.Corruption, "node %d: hLevel %d != max child hLevel+1 (%d)", n.ID, n.HLevel, hLevel+1)
		}
	}
	return nil
}
