// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package neighbor

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tractcache"
)

// Config configures one initialization pass.
type Config struct {
	Order       int // primary neighborhood order, one of SupportedOrders()
	SecondOrder int // 0 = single pass; otherwise compose with this order
	DMax        float32

	// ReadsPerSecond caps the rate of tract-store reads issued by the
	// per-seed neighbor fan-out below, independent of how many pair
	// goroutines are in flight. 0 disables limiting.
	ReadsPerSecond float64
}

// Seed is one surviving seed after discarding, indexed by its post-
// compaction id.
type Seed struct {
	ID          int
	Coord       [3]int
	Nearest     int // compacted id of nearest active neighbor, -1 if none
	NearestDist float32
	Neighbors   map[int]float32 // compacted neighbor id -> dissimilarity
}

// Result is the compacted seed set with its id remap.
type Result struct {
	Seeds   []Seed
	IDRemap []int // original seed index -> compacted index, -1 if discarded
}

// Initialize enumerates each seed's spatial neighbors, computes pairwise
// leaf dissimilarities, records each seed's nearest active neighbor, and
// discards seeds with no neighbor within DMax.
func Initialize(ctx context.Context, store tractstore.Store, cache *tractcache.Cache, roi *tractstore.ROI, cfg Config) (*Result, error) {
	offsets, err := Offsets(cfg.Order)
	if err != nil {
		return nil, err
	}
	var secondOffsets [][3]int
	if cfg.SecondOrder != 0 {
		secondOffsets, err = Offsets(cfg.SecondOrder)
		if err != nil {
			return nil, err
		}
	}

	coordToIdx := make(map[[3]int]int, len(roi.Seeds))
	for i, c := range roi.Seeds {
		coordToIdx[c] = i
	}

	n := len(roi.Seeds)
	neighborSets := make([]map[int]struct{}, n)
	for i, c := range roi.Seeds {
		set := make(map[int]struct{})
		for _, off := range offsets {
			nc := [3]int{c[0] + off[0], c[1] + off[1], c[2] + off[2]}
			if j, ok := coordToIdx[nc]; ok && j != i {
				set[j] = struct{}{}
				if secondOffsets != nil {
					for _, off2 := range secondOffsets {
						nc2 := [3]int{nc[0] + off2[0], nc[1] + off2[1], nc[2] + off2[2]}
						if k, ok := coordToIdx[nc2]; ok && k != i {
							set[k] = struct{}{}
						}
					}
				}
			}
		}
		neighborSets[i] = set
	}

	var limiter *rate.Limiter
	if cfg.ReadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ReadsPerSecond), 1)
	}

	dist := make([]map[int]float32, n)
	for i := range dist {
		dist[i] = make(map[int]float32)
	}

	for i := 0; i < n; i++ {
		var batch []int
		for j := range neighborSets[i] {
			if i < j {
				batch = append(batch, j)
			}
		}
		if len(batch) == 0 {
			continue
		}
		results := make([]float32, len(batch))
		errs := make([]error, len(batch))
		var wg sync.WaitGroup
		for bi, j := range batch {
			wg.Add(1)
			go func(bi, j int) {
				defer wg.Done()
				d, err := pairDistance(ctx, store, cache, limiter, i, j)
				results[bi] = d
				errs[bi] = err
			}(bi, j)
		}
		wg.Wait()
		for bi, j := range batch {
			if errs[bi] != nil {
				return nil, errs[bi]
			}
			dist[i][j] = results[bi]
			dist[j][i] = results[bi]
		}
	}

	keep := make([]bool, n)
	for i := 0; i < n; i++ {
		for _, d := range dist[i] {
			if d <= cfg.DMax {
				keep[i] = true
				break
			}
		}
	}

	remap := make([]int, n)
	var seeds []Seed
	for i := 0; i < n; i++ {
		if !keep[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(seeds)
		seeds = append(seeds, Seed{ID: len(seeds), Coord: roi.Seeds[i]})
	}

	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}
		newIdx := remap[i]
		s := &seeds[newIdx]
		s.Neighbors = make(map[int]float32, len(dist[i]))
		nearest := -1
		var nearestDist float32
		for j, d := range dist[i] {
			if !keep[j] {
				continue
			}
			nj := remap[j]
			s.Neighbors[nj] = d
			if nearest == -1 || d < nearestDist {
				nearest = nj
				nearestDist = d
			}
		}
		s.Nearest = nearest
		s.NearestDist = nearestDist
	}

	return &Result{Seeds: seeds, IDRemap: remap}, nil
}

// pairDistance loads (or fetches from cache) the thresholded log-unit
// leaf tracts for seeds i and j and computes their dissimilarity.
func pairDistance(ctx context.Context, store tractstore.Store, cache *tractcache.Cache, limiter *rate.Limiter, i, j int) (float32, error) {
	ti, err := leafTract(ctx, store, cache, limiter, i)
	if err != nil {
		return 0, err
	}
	tj, err := leafTract(ctx, store, cache, limiter, j)
	if err != nil {
		return 0, err
	}
	return tract.Distance(ti, tj)
}

func leafTract(ctx context.Context, store tractstore.Store, cache *tractcache.Cache, limiter *rate.Limiter, id int) (*tract.Tract, error) {
	if t, ok := cache.Get(tractcache.Leaf, id); ok {
		return t, nil
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, engerr.Wrap(engerr.IOError, err, "neighbor: rate limit wait for leaf tract %d", id)
		}
	}
	t, err := store.ReadLeafTract(ctx, id, true, true)
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "neighbor: read leaf tract %d", id)
	}
	if !t.NormValid() {
		tract.ComputeNorm(t)
	}
	cache.Insert(tractcache.Leaf, id, t)
	return t, nil
}
