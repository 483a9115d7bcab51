// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package builder

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/events"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/engmetrics"
	"github.com/connectome-lab/hctree/pkg/log"
	"github.com/connectome-lab/hctree/pkg/neighbor"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tractcache"
	"github.com/connectome-lab/hctree/pkg/tree"
)

// Builder runs the C6 agglomerative merge loop over a set of seeds
// already initialized by pkg/neighbor.
type Builder struct {
	tr    *tree.Tree
	store tractstore.Store
	cache *tractcache.Cache
	cfg   Config

	total int // Nseeds

	frontierMu sync.Mutex
	protos     map[int]*protoNode
	priority   map[int]bool
	current    map[int]bool

	activeSize   int
	prioritySize int
	growing      bool

	isolated []isolatedComponent

	deleteWG sync.WaitGroup

	events  *events.Sink  // optional; nil means progress events are disabled
	limiter *rate.Limiter // optional; nil means tract-store reads are unlimited
}

// Build runs the full C6 loop: growing stage (if configured), global
// stage, and the final orphan-removal pass, returning the assembled tree.
func Build(ctx context.Context, store tractstore.Store, cache *tractcache.Cache, seeds []neighbor.Seed, cfg Config) (*tree.Tree, error) {
	b := &Builder{
		tr:      tree.New("builder"),
		store:   store,
		cache:   cache,
		cfg:     cfg,
		total:   len(seeds),
		protos:  make(map[int]*protoNode, len(seeds)*2),
		priority: make(map[int]bool),
		current:  make(map[int]bool),
		events:   cfg.Events,
	}
	if cfg.ReadsPerSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.ReadsPerSecond), 1)
	}

	for i, s := range seeds {
		idx := b.tr.AddLeaf(s.Coord)
		neighbors := make(map[int]float32, len(s.Neighbors))
		for n, d := range s.Neighbors {
			neighbors[n] = d
		}
		b.protos[i] = &protoNode{
			ref:       tree.ChildRef{IsLeaf: true, Index: idx},
			isLeaf:    true,
			size:      1,
			neighbors: neighbors,
		}
	}

	switch cfg.Grow.Mode {
	case GrowOff:
		b.growing = false
		b.activeSize = b.total
		b.prioritySize = b.total
	default:
		b.growing = true
		b.activeSize = 1
		b.prioritySize = 1
	}
	for id, p := range b.protos {
		p.active = p.size <= b.activeSize
		if p.active {
			b.recomputeNearNb(id)
			b.placeInFrontier(id)
		}
	}

	if err := b.run(ctx); err != nil {
		return nil, err
	}
	b.deleteWG.Wait()

	if err := b.finalizeRoot(); err != nil {
		return nil, err
	}
	b.events.PublishStage(events.StageEvent{
		Stage:        "done",
		ActiveSize:   b.activeSize,
		PrioritySize: b.prioritySize,
		At:           time.Now(),
	})
	return b.tr, nil
}

func (b *Builder) run(ctx context.Context) error {
	for {
		b.sweepIsolated()
		if len(b.priority) == 0 && len(b.current) == 0 {
			return nil
		}
		id, ok := b.peekMin()
		if !ok || b.protos[id].nearNb == noNb {
			if !b.growFrontier() {
				return nil
			}
			continue
		}
		if err := b.mergeStep(ctx, id); err != nil {
			return err
		}
	}
}

// sweepIsolated removes from the frontier any proto whose neighbor map
// has gone empty (every live neighbor merged away without this one being
// reached), recording it as an isolated-component candidate.
func (b *Builder) sweepIsolated() {
	for id, p := range b.protos {
		if p.location == locIsolated || !p.active {
			continue
		}
		if (p.location == locPriority || p.location == locCurrent) && len(p.neighbors) == 0 {
			b.removeFromFrontier(id)
			p.location = locIsolated
			b.isolated = append(b.isolated, isolatedComponent{ref: p.ref, size: p.size})
		}
	}
}

// peekMin finds the smallest (near-distance, proto-id) pair among the
// priority set, tie-broken by ascending proto id for a stable, order-
// independent merge sequence (B-4).
func (b *Builder) peekMin() (int, bool) {
	best := -1
	var bestKey float32
	for id := range b.priority {
		p := b.protos[id]
		key := p.nearDist
		if p.nearNb == noNb {
			key = float32(math.MaxFloat32)
		}
		if best == -1 || key < bestKey || (key == bestKey && id < best) {
			best, bestKey = id, key
		}
	}
	return best, best != -1
}

func (b *Builder) recomputeNearNb(id int) {
	p := b.protos[id]
	best := noNb
	var bestDist float32
	for nid, d := range p.neighbors {
		np, ok := b.protos[nid]
		if !ok || !np.active {
			continue
		}
		if best == noNb || d < bestDist || (d == bestDist && nid < best) {
			best, bestDist = nid, d
		}
	}
	p.nearNb = best
	p.nearDist = bestDist
}

func (b *Builder) removeFromFrontier(id int) {
	delete(b.priority, id)
	delete(b.current, id)
}

func (b *Builder) placeInFrontier(id int) {
	p := b.protos[id]
	b.removeFromFrontier(id)
	if !p.active {
		p.location = locNone
		return
	}
	if p.size <= b.prioritySize {
		b.priority[id] = true
		p.location = locPriority
	} else {
		b.current[id] = true
		p.location = locCurrent
	}
}

func (b *Builder) scheduleDelete(nodeIdx int) {
	b.deleteWG.Add(1)
	go func() {
		defer b.deleteWG.Done()
		if err := b.store.DeleteNodeTract(context.Background(), nodeIdx); err != nil {
			log.Warnf("builder: delete node tract %d: %v", nodeIdx, err)
		}
	}()
}

// finalizeRoot resolves the isolated-component candidates: the one
// containing more than half of all leaves becomes the tree root; falling
// that (no majority component, an edge case the source leaves
// unspecified), the largest is chosen. Every other isolated subtree is
// flagged and dropped by a final Cleanup.
func (b *Builder) finalizeRoot() error {
	if len(b.isolated) == 0 {
		return engerr.New(engerr.Corruption, "builder: merge loop produced no root")
	}
	rootIdx := 0
	for i, iso := range b.isolated {
		if iso.size > b.total/2 {
			rootIdx = i
			break
		}
		if iso.size > b.isolated[rootIdx].size {
			rootIdx = i
		}
	}
	for i, iso := range b.isolated {
		if i == rootIdx {
			continue
		}
		log.Warnf("builder: dropping orphan component with %d leaves", iso.size)
		b.tr.PreOrder(iso.ref, func(c tree.ChildRef) {
			if c.IsLeaf {
				b.tr.Leaves[c.Index].Flag = true
			} else {
				b.tr.Nodes[c.Index].Flag = true
			}
		})
	}
	b.tr.Cleanup()
	return nil
}

// loadNatural loads a proto's current natural-unit tract: leaves come
// from the store's un-logged representation, internal nodes from the
// node tract store.
func (b *Builder) loadNatural(ctx context.Context, p *protoNode) (*tract.Tract, error) {
	if err := b.waitForRead(ctx); err != nil {
		return nil, err
	}
	if p.isLeaf {
		t, err := b.store.ReadLeafTract(ctx, p.ref.Index, false, false)
		if err != nil {
			return nil, engerr.Wrap(engerr.IOError, err, "builder: read leaf tract %d", p.ref.Index)
		}
		return t, nil
	}
	t, err := b.store.ReadNodeTract(ctx, p.ref.Index, false, false)
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "builder: read node tract %d", p.ref.Index)
	}
	return t, nil
}

// loadComparable loads a proto id's log-unit, thresholded tract for
// distance computation, preferring the cache.
func (b *Builder) loadComparable(ctx context.Context, id int) (*tract.Tract, error) {
	p, ok := b.protos[id]
	if !ok {
		return nil, engerr.New(engerr.Corruption, "builder: unknown proto id %d in neighbor map", id)
	}
	kind := tractcache.Leaf
	tierName := "leaf"
	if !p.isLeaf {
		kind = tractcache.Node
		tierName = "node"
	}
	if t, ok := b.cache.Get(kind, p.ref.Index); ok {
		engmetrics.ObserveCacheLookup(tierName, true)
		return t, nil
	}
	engmetrics.ObserveCacheLookup(tierName, false)
	if err := b.waitForRead(ctx); err != nil {
		return nil, err
	}
	var t *tract.Tract
	var err error
	if p.isLeaf {
		t, err = b.store.ReadLeafTract(ctx, p.ref.Index, true, true)
	} else {
		t, err = b.store.ReadNodeTract(ctx, p.ref.Index, true, true)
	}
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "builder: read comparable tract for proto %d", id)
	}
	if !t.NormValid() {
		tract.ComputeNorm(t)
	}
	b.cache.Insert(kind, p.ref.Index, t)
	return t, nil
}

// waitForRead blocks until the builder's read-rate limiter admits another
// tract-store read; a nil limiter (the default) never blocks.
func (b *Builder) waitForRead(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return engerr.Wrap(engerr.IOError, err, "builder: rate limit wait")
	}
	return nil
}

func (b *Builder) rebalanceCache() {
	leavesStillNeeded := b.total - len(b.protos) + len(b.priority) + len(b.current)
	b.cache.RebalanceBudgets(b.cfg.CacheBudgetBytes, b.growing, leavesStillNeeded)
}
