// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package neighbor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tractcache"
)

func TestOffsetsRejectsUnsupportedOrder(t *testing.T) {
	_, err := Offsets(7)
	assert.Error(t, err)
}

func TestOffsetsCountsMatchOrder(t *testing.T) {
	for _, order := range SupportedOrders() {
		offs, err := Offsets(order)
		require.NoError(t, err)
		assert.Len(t, offs, order)
	}
}

func TestOffsetsOrder6IsFaceNeighbors(t *testing.T) {
	offs, err := Offsets(6)
	require.NoError(t, err)
	want := map[[3]int]bool{
		{1, 0, 0}: true, {-1, 0, 0}: true,
		{0, 1, 0}: true, {0, -1, 0}: true,
		{0, 0, 1}: true, {0, 0, -1}: true,
	}
	for _, o := range offs {
		assert.True(t, want[o], "unexpected offset %v in order-6 set", o)
	}
}

// tinySeedScenario reproduces the spec's tiny deterministic build: 4
// seeds along the X axis with tracts [1,0,0,0] x2, [0,1,0,0] x2.
func tinySeedScenario(t *testing.T) (*tractstore.ROI, map[int]*tract.Tract) {
	roi := &tractstore.ROI{
		GridDims: [3]int{4, 1, 1},
		Seeds:    [][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
	}
	leafTracts := map[int]*tract.Tract{
		0: tract.New([]float32{1, 0, 0, 0}),
		1: tract.New([]float32{1, 0, 0, 0}),
		2: tract.New([]float32{0, 1, 0, 0}),
		3: tract.New([]float32{0, 1, 0, 0}),
	}
	return roi, leafTracts
}

func TestInitializeTinyDeterministicBuild(t *testing.T) {
	roi, leafTracts := tinySeedScenario(t)
	store := tractstore.NewMemStore(roi, leafTracts, 0)
	cache := tractcache.New(2.0)
	cache.SetLimit(tractcache.Leaf, 1<<20)
	cache.SetLimit(tractcache.Node, 1<<20)

	res, err := Initialize(context.Background(), store, cache, roi, Config{Order: 6, DMax: 1})
	require.NoError(t, err)
	assert.Len(t, res.Seeds, 4)
	for _, id := range res.IDRemap {
		assert.GreaterOrEqual(t, id, 0, "no seed should be discarded in this scenario")
	}

	// Seed 0 and 1 share an identical tract (distance 0); seed 2 and 3 are
	// neighbors of 1 and 2 with distance 1 between the two tract groups.
	s0 := res.Seeds[0]
	assert.Equal(t, 1, s0.Nearest)
	assert.InDelta(t, 0, s0.NearestDist, 1e-6)
}

func TestInitializeDiscardsIsolatedSeed(t *testing.T) {
	roi := &tractstore.ROI{
		GridDims: [3]int{10, 1, 1},
		Seeds:    [][3]int{{0, 0, 0}, {1, 0, 0}, {8, 0, 0}},
	}
	leafTracts := map[int]*tract.Tract{
		0: tract.New([]float32{1, 0}),
		1: tract.New([]float32{0, 1}),
		2: tract.New([]float32{1, 0}),
	}
	store := tractstore.NewMemStore(roi, leafTracts, 0)
	cache := tractcache.New(2.0)
	cache.SetLimit(tractcache.Leaf, 1<<20)
	cache.SetLimit(tractcache.Node, 1<<20)

	res, err := Initialize(context.Background(), store, cache, roi, Config{Order: 6, DMax: 1})
	require.NoError(t, err)
	assert.Len(t, res.Seeds, 2, "seed at coord 8 has no spatial neighbor and must be discarded")
	assert.Equal(t, -1, res.IDRemap[2])
}
