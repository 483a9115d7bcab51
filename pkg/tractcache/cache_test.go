// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tractcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/connectome-lab/hctree/pkg/tract"
)

func mustTract(n int) *tract.Tract {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i + 1)
	}
	return tract.New(v)
}

func TestInsertGetPromotes(t *testing.T) {
	c := New(2.0)
	c.SetLimit(Leaf, 1<<20)
	c.Insert(Leaf, 1, mustTract(4))
	c.Insert(Leaf, 2, mustTract(4))

	_, ok := c.Get(Leaf, 1)
	assert.True(t, ok)
	// 1 is now MRU; LRU order should be [1, 2].
	assert.Equal(t, []int{1, 2}, c.Keys(Leaf))
}

func TestGetNoUpdateDoesNotPromote(t *testing.T) {
	c := New(2.0)
	c.SetLimit(Leaf, 1<<20)
	c.Insert(Leaf, 1, mustTract(4))
	c.Insert(Leaf, 2, mustTract(4))

	_, ok := c.GetNoUpdate(Leaf, 2)
	assert.True(t, ok)
	assert.Equal(t, []int{2, 1}, c.Keys(Leaf))
}

func TestInsertIsNoOpWhenPresent(t *testing.T) {
	c := New(2.0)
	c.SetLimit(Leaf, 1<<20)
	first := mustTract(4)
	c.Insert(Leaf, 1, first)
	c.Insert(Leaf, 1, mustTract(8))

	got, ok := c.Get(Leaf, 1)
	assert.True(t, ok)
	assert.Same(t, first, got)
}

func TestCleanupEvictsLRUUntilWithinLimit(t *testing.T) {
	c := New(2.0)
	// Each mustTract(4) costs 4*4+24 = 40 bytes; cap at 2 entries.
	c.SetLimit(Leaf, 85)
	c.Insert(Leaf, 1, mustTract(4))
	c.Insert(Leaf, 2, mustTract(4))
	c.Insert(Leaf, 3, mustTract(4))
	c.Cleanup()

	assert.LessOrEqual(t, c.Len(Leaf), 2)
	_, ok := c.Get(Leaf, 1)
	assert.False(t, ok, "oldest entry should have been evicted")
}

func TestEraseRemovesEntry(t *testing.T) {
	c := New(2.0)
	c.SetLimit(Leaf, 1<<20)
	c.Insert(Leaf, 1, mustTract(4))
	c.Erase(Leaf, 1)
	_, ok := c.Get(Leaf, 1)
	assert.False(t, ok)
}

func TestShutdownClearsBothTiers(t *testing.T) {
	c := New(2.0)
	c.SetLimit(Leaf, 1<<20)
	c.SetLimit(Node, 1<<20)
	c.Insert(Leaf, 1, mustTract(4))
	c.Insert(Node, 1, mustTract(4))
	c.Shutdown()
	assert.Equal(t, 0, c.Len(Leaf))
	assert.Equal(t, 0, c.Len(Node))
}

func TestTiersAreIndependent(t *testing.T) {
	c := New(2.0)
	c.SetLimit(Leaf, 1<<20)
	c.SetLimit(Node, 1<<20)
	c.Insert(Leaf, 1, mustTract(4))
	_, ok := c.Get(Node, 1)
	assert.False(t, ok, "leaf and node tiers must not share keys")
}

func TestRebalanceBudgetsGrowingStageUsesFullRatio(t *testing.T) {
	c := New(2.0)
	c.RebalanceBudgets(1000, true, 0)
	// leaves_budget = rho * total = 2000; nodes_budget = 1000 - 2000/2 + 1 = 1.
	c.leaves.mu.Lock()
	leavesLimit := c.leaves.limit
	c.leaves.mu.Unlock()
	c.nodes.mu.Lock()
	nodesLimit := c.nodes.limit
	c.nodes.mu.Unlock()
	assert.Equal(t, 2000, leavesLimit)
	assert.Equal(t, 1, nodesLimit)
}

func TestRebalanceBudgetsNonGrowingCapsAtHalf(t *testing.T) {
	c := New(2.0)
	c.RebalanceBudgets(1000, false, 10000)
	// leaves_budget = min(10000, rho*1000/2) = min(10000, 1000) = 1000.
	c.leaves.mu.Lock()
	limit := c.leaves.limit
	c.leaves.mu.Unlock()
	assert.Equal(t, 1000, limit)
}

func TestRebalanceBudgetsRespectsLeavesStillNeeded(t *testing.T) {
	c := New(2.0)
	c.RebalanceBudgets(1000, false, 5)
	c.leaves.mu.Lock()
	limit := c.leaves.limit
	c.leaves.mu.Unlock()
	assert.Equal(t, 5, limit)
}
