// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package treeproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectome-lab/hctree/pkg/tree"
)

// weightedScenarioTree builds a parent at level 0.4 with four leaf-sized
// children of sizes 4, 2, 2, 2 carrying levels 0.5, 0.3, 0.3 via two
// intermediate nodes (since a real tree node only has taggable children,
// not bare sizes), matching the spec's scenario 4 figures.
func weightedScenarioTree(t *testing.T) (*tree.Tree, int) {
	tr := tree.New("w")
	// child A: size 4, level 0.5 -- built from 4 leaves via two base nodes.
	for i := 0; i < 4; i++ {
		tr.AddLeaf([3]int{i, 0, 0})
	}
	a1, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 0}, {IsLeaf: true, Index: 1}}, 0.5)
	require.NoError(t, err)
	a2, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 2}, {IsLeaf: true, Index: 3}}, 0.5)
	require.NoError(t, err)
	childA, err := tr.AddNode([]tree.ChildRef{{IsLeaf: false, Index: a1}, {IsLeaf: false, Index: a2}}, 0.5)
	require.NoError(t, err)

	// child B: size 2, level 0.3.
	tr.AddLeaf([3]int{4, 0, 0})
	tr.AddLeaf([3]int{5, 0, 0})
	childB, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 4}, {IsLeaf: true, Index: 5}}, 0.3)
	require.NoError(t, err)

	// child C: size 2, level 0.3.
	tr.AddLeaf([3]int{6, 0, 0})
	tr.AddLeaf([3]int{7, 0, 0})
	childC, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 6}, {IsLeaf: true, Index: 7}}, 0.3)
	require.NoError(t, err)

	parent, err := tr.AddNode([]tree.ChildRef{
		{IsLeaf: false, Index: childA},
		{IsLeaf: false, Index: childB},
		{IsLeaf: false, Index: childC},
	}, 0.4)
	require.NoError(t, err)

	return tr, parent
}

func TestForceMonotonicityWeighted(t *testing.T) {
	tr, parent := weightedScenarioTree(t)
	require.NoError(t, ForceMonotonicityWeighted(tr, 1))
	assert.InDelta(t, 0.45, tr.Nodes[parent].Level, 1e-6)
}

func TestForceMonotonicityWeightedRejectsSubunitMultiplier(t *testing.T) {
	tr, _ := weightedScenarioTree(t)
	assert.Error(t, ForceMonotonicityWeighted(tr, 0.5))
}

func TestForceMonotonicityWeightedCapsMultiplier(t *testing.T) {
	tr, parent := weightedScenarioTree(t)
	require.NoError(t, ForceMonotonicityWeighted(tr, 1e9))
	assert.InDelta(t, 0.45, tr.Nodes[parent].Level, 1e-3)
}

func TestForceMonotonicityUp(t *testing.T) {
	tr := tree.New("u")
	tr.AddLeaf([3]int{0, 0, 0})
	tr.AddLeaf([3]int{1, 0, 0})
	child, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 0}, {IsLeaf: true, Index: 1}}, 0.9)
	require.NoError(t, err)
	tr.AddLeaf([3]int{2, 0, 0})
	_, err = tr.AddNode([]tree.ChildRef{{IsLeaf: false, Index: child}, {IsLeaf: true, Index: 2}}, 0.5)
	require.NoError(t, err)

	require.NoError(t, ForceMonotonicityUp(tr))
	root, _ := tr.Root()
	assert.LessOrEqual(t, tr.Nodes[child].Level, tr.Nodes[root].Level)
}

func TestDebinarizeCollapsesEqualLevelChild(t *testing.T) {
	tr := tree.New("d")
	for i := 0; i < 3; i++ {
		tr.AddLeaf([3]int{i, 0, 0})
	}
	inner, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 0}, {IsLeaf: true, Index: 1}}, 0.5)
	require.NoError(t, err)
	_, err = tr.AddNode([]tree.ChildRef{{IsLeaf: false, Index: inner}, {IsLeaf: true, Index: 2}}, 0.5)
	require.NoError(t, err)

	require.NoError(t, Debinarize(tr, false))
	require.NoError(t, tr.CheckInvariants())

	root, ok := tr.Root()
	require.True(t, ok)
	assert.Len(t, tr.Nodes[root].Children, 3, "inner's leaves should have spliced into root")
}

func TestDebinarizeKeepsBaseNodes(t *testing.T) {
	tr := tree.New("d")
	for i := 0; i < 3; i++ {
		tr.AddLeaf([3]int{i, 0, 0})
	}
	base, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 0}, {IsLeaf: true, Index: 1}}, 0.5)
	require.NoError(t, err)
	_, err = tr.AddNode([]tree.ChildRef{{IsLeaf: false, Index: base}, {IsLeaf: true, Index: 2}}, 0.5)
	require.NoError(t, err)

	require.NoError(t, Debinarize(tr, true))
	root, _ := tr.Root()
	assert.Len(t, tr.Nodes[root].Children, 2, "base-node must survive as a single child")
}

func TestFlattenSelectionPreservesLeafSet(t *testing.T) {
	tr := buildBinaryChain(t, 5)
	root, _ := tr.Root()
	before := len(tr.Leaves)

	require.NoError(t, FlattenSelection(tr, []int{root}, false))
	require.NoError(t, tr.CheckInvariants())
	assert.Equal(t, before, len(tr.Leaves))
	newRoot, ok := tr.Root()
	require.True(t, ok)
	assert.Len(t, tr.Nodes[newRoot].Children, before)
}

func TestPruneUpdatesAncestorSizes(t *testing.T) {
	tr := buildBinaryChain(t, 4)
	root, _ := tr.Root()
	res, err := Prune(tr, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PrunedLeaves)
	require.NoError(t, tr.CheckInvariants())
	newRoot, _ := tr.Root()
	assert.Equal(t, 3, tr.Nodes[newRoot].Size)
	_ = root
}

func TestCoarsenTreeRejectsSmallFactor(t *testing.T) {
	tr := buildBinaryChain(t, 4)
	_, err := CoarsenTree(tr, 1)
	assert.Error(t, err)
}

func TestCoarsenTreeMergesCollidingCoordinates(t *testing.T) {
	tr := tree.New("c")
	tr.AddLeaf([3]int{0, 0, 0})
	tr.AddLeaf([3]int{1, 0, 0})
	_, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 0}, {IsLeaf: true, Index: 1}}, 0.2)
	require.NoError(t, err)

	remap, err := CoarsenTree(tr, 2)
	require.NoError(t, err)
	assert.Len(t, remap, 2)
	assert.Len(t, tr.Leaves, 1, "both seeds map to the same coarsened coordinate")
}

func TestBaseToLeavesProducesOneLeafPerBaseNode(t *testing.T) {
	tr := tree.New("b")
	for i := 0; i < 4; i++ {
		tr.AddLeaf([3]int{i, 0, 0})
	}
	base1, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 0}, {IsLeaf: true, Index: 1}}, 0)
	require.NoError(t, err)
	base2, err := tr.AddNode([]tree.ChildRef{{IsLeaf: true, Index: 2}, {IsLeaf: true, Index: 3}}, 0)
	require.NoError(t, err)
	_, err = tr.AddNode([]tree.ChildRef{{IsLeaf: false, Index: base1}, {IsLeaf: false, Index: base2}}, 1)
	require.NoError(t, err)

	require.NoError(t, BaseToLeaves(tr))
	require.NoError(t, tr.CheckInvariants())
	assert.Len(t, tr.Leaves, 2)
}

// buildBinaryChain builds a left-deep binary tree of n leaves.
func buildBinaryChain(t *testing.T, n int) *tree.Tree {
	tr := tree.New("chain")
	tr.AddLeaf([3]int{0, 0, 0})
	cur := tree.ChildRef{IsLeaf: true, Index: 0}
	for i := 1; i < n; i++ {
		li := tr.AddLeaf([3]int{i, 0, 0})
		idx, err := tr.AddNode([]tree.ChildRef{cur, {IsLeaf: true, Index: li}}, float32(i))
		require.NoError(t, err)
		cur = tree.ChildRef{IsLeaf: false, Index: idx}
	}
	return tr
}
