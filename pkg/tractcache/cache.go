// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tractcache

import "github.com/connectome-lab/hctree/pkg/tract"

// Kind selects which tier a key belongs to.
type Kind int

const (
	Leaf Kind = iota
	Node
)

// Cache is the two-tier tract cache of C2: independent leaf and node
// tiers sharing one overall byte budget, rebalanced every builder
// iteration via RebalanceBudgets.
type Cache struct {
	leaves *tier
	nodes  *tier
	ratio  float64 // rho: natural/compact leaf tract byte ratio, observed at startup
}

// New creates an empty cache. ratio is rho from the builder's startup
// sampling of leaf tract sizes; it must be > 0.
func New(ratio float64) *Cache {
	return &Cache{leaves: newTier(), nodes: newTier(), ratio: ratio}
}

func (c *Cache) tierFor(k Kind) *tier {
	if k == Leaf {
		return c.leaves
	}
	return c.nodes
}

// Get returns the cached tract for (kind, id), promoting it to MRU on hit.
func (c *Cache) Get(kind Kind, id int) (*tract.Tract, bool) {
	return c.tierFor(kind).get(id)
}

// GetNoUpdate reads without promoting the entry's recency.
func (c *Cache) GetNoUpdate(kind Kind, id int) (*tract.Tract, bool) {
	return c.tierFor(kind).getNoUpdate(id)
}

// Insert adds (kind, id) -> value if absent; a no-op otherwise. The value
// is stored by reference, transferring ownership to the cache.
func (c *Cache) Insert(kind Kind, id int, value *tract.Tract) {
	c.tierFor(kind).insert(id, value)
}

// Erase removes (kind, id) if present.
func (c *Cache) Erase(kind Kind, id int) {
	c.tierFor(kind).erase(id)
}

// SetLimit sets the byte budget for one tier directly, bypassing the
// §4.2 split policy; used in tests (RebalanceBudgets sets both tier
// limits itself).
func (c *Cache) SetLimit(kind Kind, bytes int) {
	c.tierFor(kind).setLimit(bytes)
}

// Cleanup evicts LRU entries on both tiers until each is within its
// current byte limit.
func (c *Cache) Cleanup() {
	c.leaves.cleanup()
	c.nodes.cleanup()
}

// Shutdown releases both tiers' tracking tables entirely.
func (c *Cache) Shutdown() {
	c.leaves.shutdown()
	c.nodes.shutdown()
}

// Len reports the current entry count of one tier.
func (c *Cache) Len(kind Kind) int { return c.tierFor(kind).size() }

// Keys returns one tier's keys in MRU-to-LRU order.
func (c *Cache) Keys(kind Kind) []int { return c.tierFor(kind).keys() }

// RebalanceBudgets implements the §4.2 split policy:
//
//	leaves_budget = min(leaves_still_needed, rho*total_budget/2)   outside growing stage
//	leaves_budget = rho*total_budget                               during growing stage (no node tracts yet)
//	nodes_budget  = total_budget - leaves_budget/rho + 1
//
// totalBudget and leavesStillNeeded are byte counts of the *compact*
// (log-unit, one-byte-per-element) representation; rho converts between
// natural and compact sizes.
func (c *Cache) RebalanceBudgets(totalBudget int, growing bool, leavesStillNeeded int) {
	var leavesBudget int
	if growing {
		leavesBudget = int(c.ratio * float64(totalBudget))
	} else {
		half := int(c.ratio * float64(totalBudget) / 2)
		leavesBudget = min(leavesStillNeeded, half)
	}
	nodesBudget := totalBudget - int(float64(leavesBudget)/c.ratio) + 1
	if nodesBudget < 0 {
		nodesBudget = 0
	}
	c.leaves.setLimit(leavesBudget)
	c.nodes.setLimit(nodesBudget)
}
