// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterNoiseLeavesTrustedNodesUntouched(t *testing.T) {
	tr, bases := buildQuadChain(t, "noisy")
	root, ok := tr.Root()
	require.True(t, ok)
	mid0 := tr.Nodes[root].Children[0].Index
	preLevel := tr.Nodes[mid0].Level

	// mid0's own level (0.5) is well above any plausible noise level, so
	// the baseline leaves the tree untouched.
	matchDist := map[int]float32{bases[0]: 0.01, bases[1]: 0.01, bases[2]: 0.01, bases[3]: 0.01}
	preCount := len(tr.Nodes)
	require.NoError(t, FilterNoise(tr, matchDist, 0.1))
	_, stillThere := tr.Root()
	require.True(t, stillThere)
	assert.Len(t, tr.Nodes, preCount)
	assert.Equal(t, preLevel, tr.Nodes[mid0].Level)
}

func TestFilterNoiseFlattensBelowNoiseNodeInPlace(t *testing.T) {
	tr, bases := buildQuadChain(t, "noisy2")
	root, ok := tr.Root()
	require.True(t, ok)
	mid0 := tr.Nodes[root].Children[0].Index

	// mid0's subtree (bases 0,1) is noisy, mid1's (bases 2,3) is clean, and
	// the root stays trusted: only mid0 should be flagged, kept in place,
	// and have its level clipped down to the root's (both land at 1.0).
	matchDist := map[int]float32{bases[0]: 10, bases[1]: 10, bases[2]: 0.01, bases[3]: 0.01}
	require.NoError(t, FilterNoise(tr, matchDist, 0.1))

	newRoot, ok := tr.Root()
	require.True(t, ok)
	require.Len(t, tr.Nodes[newRoot].Children, 2)

	var survivor *int
	for _, c := range tr.Nodes[newRoot].Children {
		if !c.IsLeaf && c.Index == mid0 {
			idx := c.Index
			survivor = &idx
		}
	}
	require.NotNil(t, survivor, "mid0 must survive as the flattened subtree root")
	assert.InDelta(t, 1.0, tr.Nodes[*survivor].Level, 1e-6, "mid0's level must clip down to the trusted root's level")
	assert.Len(t, tr.Nodes[*survivor].Children, 2, "mid0's direct base-node children are kept, not spliced away")
}

func TestFilterNoiseSkipsWhenAlphaZero(t *testing.T) {
	tr, bases := buildQuadChain(t, "noisy3")
	preCount := len(tr.Nodes)
	matchDist := map[int]float32{bases[0]: 10, bases[1]: 10, bases[2]: 10, bases[3]: 10}
	require.NoError(t, FilterNoise(tr, matchDist, 0))
	assert.Len(t, tr.Nodes, preCount)
}
