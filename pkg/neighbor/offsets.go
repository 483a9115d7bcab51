// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package neighbor implements the neighborhood initializer (C5): per-seed
// spatial neighbor enumeration at a fixed set of supported orders, the
// first pairwise leaf-tract distances, and isolated-voxel discarding with
// id compaction.
package neighbor

import (
	"sort"
	"sync"

	"github.com/connectome-lab/hctree/internal/engerr"
)

var supportedOrders = map[int]bool{6: true, 18: true, 26: true, 32: true, 92: true, 124: true}

var (
	offsetsOnce sync.Once
	offsetsByOrder map[int][][3]int
)

// Offsets returns the voxel offsets enumerating the requested
// neighborhood order, sorted by ascending Euclidean distance (ties broken
// lexicographically for determinism). Fails with BadArgument for an
// unsupported order.
func Offsets(order int) ([][3]int, error) {
	if !supportedOrders[order] {
		return nil, engerr.New(engerr.BadArgument, "neighbor: unsupported neighborhood order %d", order)
	}
	offsetsOnce.Do(func() {
		offsetsByOrder = make(map[int][][3]int, len(supportedOrders))
		for o := range supportedOrders {
			offsetsByOrder[o] = generateOffsets(o)
		}
	})
	return offsetsByOrder[order], nil
}

// SupportedOrders returns the fixed set of supported neighborhood orders.
func SupportedOrders() []int {
	out := make([]int, 0, len(supportedOrders))
	for o := range supportedOrders {
		out = append(out, o)
	}
	sort.Ints(out)
	return out
}

// generateOffsets enumerates 3D integer offsets by growing cube radius
// until at least n candidates are found, then returns the n closest by
// squared Euclidean distance (lexicographic tie-break).
func generateOffsets(n int) [][3]int {
	type candidate struct {
		off [3]int
		d2  int
	}
	var cands []candidate
	radius := 1
	for {
		cands = cands[:0]
		for dx := -radius; dx <= radius; dx++ {
			for dy := -radius; dy <= radius; dy++ {
				for dz := -radius; dz <= radius; dz++ {
					if dx == 0 && dy == 0 && dz == 0 {
						continue
					}
					cands = append(cands, candidate{[3]int{dx, dy, dz}, dx*dx + dy*dy + dz*dz})
				}
			}
		}
		if len(cands) >= n {
			break
		}
		radius++
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].d2 != cands[j].d2 {
			return cands[i].d2 < cands[j].d2
		}
		a, b := cands[i].off, cands[j].off
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	out := make([][3]int, n)
	for i := 0; i < n; i++ {
		out[i] = cands[i].off
	}
	return out
}
