// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/neighbor"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tractcache"
)

// tinyScenario reproduces the four-seed, two-base-node, one-root
// deterministic build: seeds at (0,0,0)..(3,0,0), tracts [1,0,0,0]x2 and
// [0,1,0,0]x2, order-6 neighborhoods, d_max=1, no log transform.
func tinyScenario() (*tractstore.ROI, map[int]*tract.Tract) {
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

func TestBuildTinyDeterministicScenario(t *testing.T) {
	roi, leafTracts := tinyScenario()
	store := tractstore.NewMemStore(roi, leafTracts, 0)
	cache := tractcache.New(2.0)
	cache.SetLimit(tractcache.Leaf, 1<<20)
	cache.SetLimit(tractcache.Node, 1<<20)

	res, err := neighbor.Initialize(context.Background(), store, cache, roi, neighbor.Config{Order: 6, DMax: 1})
	require.NoError(t, err)
	require.Len(t, res.Seeds, 4)

	tr, err := Build(context.Background(), store, cache, res.Seeds, Config{
		Grow:             GrowPolicy{Mode: GrowOff},
		CacheBudgetBytes: 1 << 20,
		Ratio:            2.0,
	})
	require.NoError(t, err)
	require.NoError(t, tr.CheckInvariants())

	root, ok := tr.Root()
	require.True(t, ok)
	assert.Equal(t, 4, tr.Nodes[root].Size)
	assert.Equal(t, 2, tr.Nodes[root].HLevel)
	assert.InDelta(t, 1.0, tr.Nodes[root].Level, 1e-5)

	assert.Len(t, tr.AllBaseNodes(), 2)
	for _, bn := range tr.AllBaseNodes() {
		assert.Equal(t, 2, tr.Nodes[bn].Size)
		assert.InDelta(t, 0, tr.Nodes[bn].Level, 1e-6)
	}
}

func TestBuildRejectsAsymmetricNeighborMap(t *testing.T) {
	seeds := []neighbor.Seed{
		{ID: 0, Coord: [3]int{0, 0, 0}, Nearest: 1, NearestDist: 0.5, Neighbors: map[int]float32{1: 0.5}},
		{ID: 1, Coord: [3]int{1, 0, 0}, Nearest: 0, NearestDist: 0.9, Neighbors: map[int]float32{0: 0.9}},
	}
	roi := &tractstore.ROI{GridDims: [3]int{2, 1, 1}, Seeds: [][3]int{{0, 0, 0}, {1, 0, 0}}}
	leafTracts := map[int]*tract.Tract{
		0: tract.New([]float32{1, 0}),
		1: tract.New([]float32{0, 1}),
	}
	store := tractstore.NewMemStore(roi, leafTracts, 0)
	cache := tractcache.New(2.0)
	cache.SetLimit(tractcache.Leaf, 1<<20)
	cache.SetLimit(tractcache.Node, 1<<20)

	_, err := Build(context.Background(), store, cache, seeds, Config{
		Grow:             GrowPolicy{Mode: GrowOff},
		CacheBudgetBytes: 1 << 20,
		Ratio:            2.0,
	})
	assert.Error(t, err, "asymmetric neighbor distances must surface as a consistency error")
}
