// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTinyTree reproduces the four-seed scenario: two base-nodes {0,1}
// and {2,3} at level 0, merged into a root at level 1.
func buildTinyTree(t *testing.T) *Tree {
	tr := New("tiny")
	for i, coord := range [][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}} {
		idx := tr.AddLeaf(coord)
		require.Equal(t, i, idx)
	}
	base1, err := tr.AddNode([]ChildRef{{IsLeaf: true, Index: 0}, {IsLeaf: true, Index: 1}}, 0)
	require.NoError(t, err)
	base2, err := tr.AddNode([]ChildRef{{IsLeaf: true, Index: 2}, {IsLeaf: true, Index: 3}}, 0)
	require.NoError(t, err)
	_, err = tr.AddNode([]ChildRef{{IsLeaf: false, Index: base1}, {IsLeaf: false, Index: base2}}, 1)
	require.NoError(t, err)
	return tr
}

func TestTinyDeterministicBuild(t *testing.T) {
	tr := buildTinyTree(t)
	require.NoError(t, tr.CheckInvariants())

	root, ok := tr.Root()
	require.True(t, ok)
	assert.Equal(t, 4, tr.Nodes[root].Size)
	assert.Equal(t, 2, tr.Nodes[root].HLevel)
	assert.Equal(t, float32(1), tr.Nodes[root].Level)

	assert.True(t, tr.IsBaseNode(tr.Leaves[0].Parent))
	assert.Equal(t, tr.Leaves[0].Parent, tr.Leaves[1].Parent)
	assert.Equal(t, tr.Leaves[2].Parent, tr.Leaves[3].Parent)
	assert.NotEqual(t, tr.Leaves[0].Parent, tr.Leaves[2].Parent)

	bases := tr.AllBaseNodes()
	assert.Len(t, bases, 2)
	assert.True(t, tr.IsBaseNodeTree())
}

func TestLCAAndDistance(t *testing.T) {
	tr := buildTinyTree(t)
	d01, ok := tr.Distance(0, 1)
	require.True(t, ok)
	assert.Equal(t, float32(0), d01)

	d02, ok := tr.Distance(0, 2)
	require.True(t, ok)
	assert.Equal(t, float32(1), d02)
}

func TestMeanCoordinate(t *testing.T) {
	tr := buildTinyTree(t)
	root, _ := tr.Root()
	mean := tr.MeanCoordinate(root)
	assert.InDelta(t, 1.5, mean[0], 1e-9)
	assert.InDelta(t, 0, mean[1], 1e-9)
}

func TestSerializationRoundTrip(t *testing.T) {
	tr := buildTinyTree(t)
	tr.GridDims = [3]int{4, 1, 1}
	tr.LogFactor = 3
	tr.NStreams = 1000

	var buf bytes.Buffer
	require.NoError(t, tr.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, tr.Name, got.Name)
	assert.Equal(t, tr.GridDims, got.GridDims)
	assert.Equal(t, tr.NStreams, got.NStreams)
	assert.Len(t, got.Leaves, 4)
	assert.Len(t, got.Nodes, 3)
	require.NoError(t, got.CheckInvariants())

	root, ok := got.Root()
	require.True(t, ok)
	assert.Equal(t, 4, got.Nodes[root].Size)
}

func TestFlipX(t *testing.T) {
	tr := buildTinyTree(t)
	tr.GridDims = [3]int{4, 1, 1}
	tr.FlipX()
	assert.Equal(t, 3, tr.Leaves[0].Coord[0])
	assert.Equal(t, 0, tr.Leaves[3].Coord[0])
	assert.Contains(t, tr.Name, "flipped")
}

func TestCheckInvariantsCatchesSizeMismatch(t *testing.T) {
	tr := buildTinyTree(t)
	root, _ := tr.Root()
	tr.Nodes[root].Size = 99
	err := tr.CheckInvariants()
	assert.Error(t, err)
}
