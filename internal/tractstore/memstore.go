// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tractstore

import (
	"context"
	"sync"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/pkg/tract"
)

// MemStore is an in-memory Store, used by tests where nothing needs to
// touch disk.
type MemStore struct {
	mu       sync.RWMutex
	leaves   map[int]*tract.Tract
	nodes    map[int]*tract.Tract
	roi      *ROI
	nstream  int
}

// NewMemStore creates a MemStore seeded with leaf tracts (natural units,
// unthresholded, un-logged) and the given ROI. nstream is the per-run
// streamline count used for log/threshold conversions on read.
func NewMemStore(roi *ROI, leafTracts map[int]*tract.Tract, nstream int) *MemStore {
	return &MemStore{
		leaves:  leafTracts,
		nodes:   make(map[int]*tract.Tract),
		roi:     roi,
		nstream: nstream,
	}
}

func (m *MemStore) prepare(t *tract.Tract, log, threshold bool) (*tract.Tract, error) {
	out := t.Clone()
	if threshold && !out.Thresholded() {
		if err := tract.Threshold(out, 0); err != nil {
			return nil, err
		}
	}
	if log && !out.InLogUnits() {
		if err := tract.DoLog(out, m.nstream); err != nil {
			return nil, err
		}
	}
	tract.ComputeNorm(out)
	return out, nil
}

func (m *MemStore) ReadLeafTract(_ context.Context, id int, log, threshold bool) (*tract.Tract, error) {
	m.mu.RLock()
	t, ok := m.leaves[id]
	m.mu.RUnlock()
	if !ok {
		return nil, engerr.New(engerr.IOError, "memstore: no leaf tract for id %d", id)
	}
	return m.prepare(t, log, threshold)
}

func (m *MemStore) ReadNodeTract(_ context.Context, id int, log, threshold bool) (*tract.Tract, error) {
	m.mu.RLock()
	t, ok := m.nodes[id]
	m.mu.RUnlock()
	if !ok {
		return nil, engerr.New(engerr.IOError, "memstore: no node tract for id %d", id)
	}
	return m.prepare(t, log, threshold)
}

func (m *MemStore) WriteNodeTract(_ context.Context, id int, t *tract.Tract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = t.Clone()
	return nil
}

func (m *MemStore) DeleteNodeTract(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
	return nil
}

func (m *MemStore) LoadROI(_ context.Context) (*ROI, error) {
	if m.roi == nil {
		return nil, engerr.New(engerr.IOError, "memstore: no ROI loaded")
	}
	return m.roi, nil
}

var _ Store = (*MemStore)(nil)
