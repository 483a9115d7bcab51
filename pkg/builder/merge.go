// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package builder

import (
	"context"
	"sync"
	"time"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/events"
	"github.com/connectome-lab/hctree/pkg/engmetrics"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tractcache"
	"github.com/connectome-lab/hctree/pkg/tree"
)

// mergeStep merges proto id a with its currently-nearest active neighbor,
// following the nine steps of §4.6: verify consistency, load the natural-
// unit tracts, add the tree node, compute the merged centroid, fan out
// neighbor distance updates in parallel, re-place every touched proto in
// the frontier, and rebalance the cache.
func (b *Builder) mergeStep(ctx context.Context, a int) error {
	start := time.Now()
	defer func() { engmetrics.ObserveMerge(time.Since(start)) }()

	pa := b.protos[a]
	nbA := pa.nearNb
	if nbA == noNb {
		return engerr.New(engerr.Corruption, "builder: merge candidate %d has no near neighbor", a)
	}
	pb, ok := b.protos[nbA]
	if !ok || !pb.active {
		return engerr.New(engerr.Corruption, "builder: near neighbor %d of %d is not active", nbA, a)
	}
	bID := nbA

	// B-1/B-2: a and b must be mutual nearest-consistent, i.e. each must
	// still carry the other in its neighbor map with the same distance.
	dAB, ok := pa.neighbors[bID]
	if !ok {
		return engerr.New(engerr.Corruption, "builder: proto %d missing reciprocal neighbor %d", a, bID)
	}
	if dBA, ok := pb.neighbors[a]; !ok || dBA != dAB {
		return engerr.New(engerr.Corruption, "builder: asymmetric neighbor distance between %d and %d", a, bID)
	}

	ta, err := b.loadNatural(ctx, pa)
	if err != nil {
		return err
	}
	tb, err := b.loadNatural(ctx, pb)
	if err != nil {
		return err
	}

	b.removeFromFrontier(a)
	b.removeFromFrontier(bID)

	nodeIdx, err := b.tr.AddNode([]tree.ChildRef{pa.ref, pb.ref}, dAB)
	if err != nil {
		return err
	}
	merged := tract.New(make([]float32, ta.Len()))
	if err := tract.MergeInto(merged, ta, tb, pa.size, pb.size); err != nil {
		return err
	}
	if err := b.store.WriteNodeTract(ctx, nodeIdx, merged); err != nil {
		return engerr.Wrap(engerr.IOError, err, "builder: write node tract %d", nodeIdx)
	}

	if !pa.isLeaf {
		b.scheduleDelete(pa.ref.Index)
	}
	if !pb.isLeaf {
		b.scheduleDelete(pb.ref.Index)
	}

	comparable := merged.Clone()
	if b.cfg.NStream > 0 {
		if err := tract.DoLog(comparable, b.cfg.NStream); err != nil {
			return err
		}
	}
	if b.cfg.Threshold > 0 {
		if err := tract.Threshold(comparable, b.cfg.Threshold); err != nil {
			return err
		}
	}
	tract.ComputeNorm(comparable)
	b.cache.Insert(tractcache.Node, nodeIdx, comparable)

	union := make(map[int]float32, len(pa.neighbors)+len(pb.neighbors))
	for nid, d := range pa.neighbors {
		if nid != bID {
			union[nid] = d
		}
	}
	for nid, d := range pb.neighbors {
		if nid != a {
			union[nid] = d
		}
	}
	delete(union, a)
	delete(union, bID)

	newID := b.total + nodeIdx
	newProto := &protoNode{
		ref:       tree.ChildRef{IsLeaf: false, Index: nodeIdx},
		isLeaf:    false,
		active:    true,
		size:      pa.size + pb.size,
		neighbors: make(map[int]float32, len(union)),
		nearNb:    noNb,
	}

	type nbResult struct {
		id   int
		dist float32
		err  error
	}
	ids := make([]int, 0, len(union))
	for nid := range union {
		ids = append(ids, nid)
	}
	results := make([]nbResult, len(ids))
	var wg sync.WaitGroup
	for i, nid := range ids {
		wg.Add(1)
		go func(i, nid int) {
			defer wg.Done()
			d, err := b.computeDistance(ctx, newID, nid)
			results[i] = nbResult{id: nid, dist: d, err: err}
		}(i, nid)
	}
	wg.Wait()

	b.frontierMu.Lock()
	defer b.frontierMu.Unlock()

	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		np, ok := b.protos[r.id]
		if !ok {
			continue
		}
		delete(np.neighbors, a)
		delete(np.neighbors, bID)
		np.neighbors[newID] = r.dist
		newProto.neighbors[r.id] = r.dist
		b.recomputeNearNb(r.id)
		if np.active {
			b.placeInFrontier(r.id)
		}
	}

	delete(b.protos, a)
	delete(b.protos, bID)
	b.protos[newID] = newProto

	if len(newProto.neighbors) == 0 {
		newProto.location = locIsolated
		b.isolated = append(b.isolated, isolatedComponent{ref: newProto.ref, size: newProto.size})
	} else {
		b.recomputeNearNb(newID)
		b.placeInFrontier(newID)
	}

	b.rebalanceCache()
	b.cache.Cleanup()
	engmetrics.SetFrontierSize(len(b.priority), len(b.current))

	b.events.PublishMerge(events.MergeEvent{
		NodeID:      nodeIdx,
		ChildA:      a,
		ChildB:      bID,
		Size:        newProto.size,
		Level:       dAB,
		FrontierLen: len(b.priority) + len(b.current),
		At:          time.Now(),
	})
	return nil
}

// computeDistance loads the comparable (log-unit, thresholded) tracts for
// two proto ids and returns their dissimilarity. newID's tract always
// comes from the cache entry just inserted by mergeStep.
func (b *Builder) computeDistance(ctx context.Context, newID, other int) (float32, error) {
	tNew, found := b.cache.Get(tractcache.Node, b.protos[newID].ref.Index)
	if !found {
		var err error
		tNew, err = b.loadComparable(ctx, newID)
		if err != nil {
			return 0, err
		}
	}
	tOther, err := b.loadComparable(ctx, other)
	if err != nil {
		return 0, err
	}
	return tract.Distance(tNew, tOther)
}

// growFrontier advances the growing-stage state machine: it first tries
// to admit more protos into the active set, and only once the active set
// is maxed does it grow the priority set. It returns false once the
// growing stage has completed and the merge loop should terminate because
// the frontier is empty.
func (b *Builder) growFrontier() bool {
	if !b.growing {
		return false
	}
	if b.activeSize < b.total {
		b.activeSize++
		for id, p := range b.protos {
			if !p.active && p.size <= b.activeSize {
				p.active = true
				b.recomputeNearNb(id)
				b.placeInFrontier(id)
			}
		}
		return true
	}
	if b.checkGrowthTermination() {
		b.endGrowingStage()
		return len(b.priority) > 0 || len(b.current) > 0
	}
	b.prioritySize++
	for id, p := range b.protos {
		if p.active && p.location == locCurrent && p.size <= b.prioritySize {
			b.placeInFrontier(id)
		}
	}
	return true
}

// checkGrowthTermination reports whether the growing stage's configured
// stop condition has been reached.
func (b *Builder) checkGrowthTermination() bool {
	switch b.cfg.Grow.Mode {
	case GrowToSize:
		return b.prioritySize >= b.cfg.Grow.Size
	case GrowToCount:
		return len(b.priority)+len(b.current) <= b.cfg.Grow.Count
	default:
		return true
	}
}

// endGrowingStage transitions out of the growing stage: every remaining
// proto becomes active and eligible for the priority set, matching the
// global stage's activeSize = prioritySize = total invariant.
func (b *Builder) endGrowingStage() {
	b.growing = false
	b.activeSize = b.total
	b.prioritySize = b.total
	for id, p := range b.protos {
		if p.location == locIsolated {
			continue
		}
		if !p.active {
			p.active = true
			b.recomputeNearNb(id)
		}
		b.placeInFrontier(id)
	}
	b.events.PublishStage(events.StageEvent{
		Stage:        "grown",
		ActiveSize:   b.activeSize,
		PrioritySize: b.prioritySize,
		At:           time.Now(),
	})
}
