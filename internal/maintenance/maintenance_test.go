// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tractcache"
)

func TestDeleteQueueDrainRespectsBatchSize(t *testing.T) {
	q := NewDeleteQueue()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	require.Equal(t, 5, q.Len())

	first := q.drain(2)
	assert.Equal(t, []int{0, 1}, first)
	assert.Equal(t, 3, q.Len())

	rest := q.drain(0)
	assert.Equal(t, []int{2, 3, 4}, rest)
	assert.Equal(t, 0, q.Len())
}

func TestSchedulerDrainsQueuedDeletions(t *testing.T) {
	store := tractstore.NewMemStore(nil, map[int]*tract.Tract{
		0: tract.New([]float32{1, 2, 3}),
	}, 1000)
	require.NoError(t, store.WriteNodeTract(context.Background(), 42, tract.New([]float32{1, 2, 3})))

	cache := tractcache.New(2.0)
	queue := NewDeleteQueue()
	queue.Push(42)

	sched, err := Start(Config{
		CleanupInterval: "20ms",
		DrainInterval:   "20ms",
	}, cache, store, queue)
	require.NoError(t, err)
	defer sched.Shutdown()

	require.Eventually(t, func() bool {
		return queue.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerWithNilQueueSkipsDrainJob(t *testing.T) {
	store := tractstore.NewMemStore(nil, nil, 1000)
	cache := tractcache.New(2.0)

	sched, err := Start(Config{CleanupInterval: "20ms"}, cache, store, nil)
	require.NoError(t, err)
	defer sched.Shutdown()
}
