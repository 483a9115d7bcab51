// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tractcache implements the two-tier (leaf/node) bounded tract
// cache described by the builder's cache contract: each tier is an
// LRU-ordered lookup table keyed by integer id, sized in bytes rather
// than entry count, with a budget split recomputed every builder
// iteration. The linked-list/mutex shape is the same one the project's
// generic key-value cache uses; this version is specialized to tracts
// and splits the eviction budget across two independently-sized tiers
// sharing one overall byte ceiling.
package tractcache

import (
	"container/list"
	"sync"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/pkg/tract"
)

// entry is the value stored at each list element: the key (for eviction
// bookkeeping) and the cached tract.
type entry struct {
	key   int
	value *tract.Tract
	bytes int
}

// tier is a single LRU-ordered lookup table mapping an id to a cached
// tract, bounded in bytes rather than entry count.
type tier struct {
	mu        sync.Mutex
	order     *list.List // front = most recently used
	index     map[int]*list.Element
	limit     int // byte budget
	usedBytes int
}

func newTier() *tier {
	return &tier{
		order: list.New(),
		index: make(map[int]*list.Element),
	}
}

func tractBytes(t *tract.Tract) int {
	return t.Len()*4 + 24
}

// get returns the cached value and true on hit, promoting the entry to
// most-recently-used.
func (tr *tier) get(key int) (*tract.Tract, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	el, ok := tr.index[key]
	if !ok {
		return nil, false
	}
	tr.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// getNoUpdate is get without the LRU promotion.
func (tr *tier) getNoUpdate(key int) (*tract.Tract, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	el, ok := tr.index[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).value, true
}

// insert adds key->value if absent; a no-op (keeping the existing value)
// if already present. The Tract pointer is stored directly: ownership
// transfers to the cache, matching the "move form" the hot path requires.
func (tr *tier) insert(key int, value *tract.Tract) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, ok := tr.index[key]; ok {
		return
	}
	e := &entry{key: key, value: value, bytes: tractBytes(value)}
	el := tr.order.PushFront(e)
	tr.index[key] = el
	tr.usedBytes += e.bytes
}

// erase removes key if present.
func (tr *tier) erase(key int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.eraseLocked(key)
}

func (tr *tier) eraseLocked(key int) {
	el, ok := tr.index[key]
	if !ok {
		return
	}
	tr.order.Remove(el)
	delete(tr.index, key)
	tr.usedBytes -= el.Value.(*entry).bytes
}

func (tr *tier) setLimit(bytes int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.limit = bytes
}

// cleanup evicts least-recently-used entries until usedBytes <= limit. A
// limit of 0 on a non-empty tier clears it entirely.
func (tr *tier) cleanup() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.limit == 0 {
		tr.clearLocked()
		return
	}
	for tr.usedBytes > tr.limit {
		back := tr.order.Back()
		if back == nil {
			break
		}
		tr.eraseLocked(back.Value.(*entry).key)
	}
}

func (tr *tier) clearLocked() {
	tr.order.Init()
	tr.index = make(map[int]*list.Element)
	tr.usedBytes = 0
}

func (tr *tier) shutdown() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.clearLocked()
	tr.limit = 0
}

func (tr *tier) size() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.order.Len()
}

// keys returns the tier's keys in MRU-to-LRU order, for tests and the
// cache-contract invariant checks.
func (tr *tier) keys() []int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]int, 0, tr.order.Len())
	for el := tr.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry).key)
	}
	return out
}

var errShutdown = engerr.New(engerr.PreconditionViolated, "tractcache: tier used after shutdown")
