// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package maintenance

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/log"
	"github.com/connectome-lab/hctree/pkg/tractcache"
)

// Config controls how often the two periodic jobs run.
type Config struct {
	// CleanupInterval is a time.ParseDuration string; empty defaults to
	// "1m".
	CleanupInterval string `json:"cleanupInterval" yaml:"cleanupInterval"`
	// DrainInterval is a time.ParseDuration string; empty defaults to
	// "30s".
	DrainInterval string `json:"drainInterval" yaml:"drainInterval"`
	// DrainBatchSize caps how many queued deletions are processed per
	// tick; 0 means unbounded.
	DrainBatchSize int `json:"drainBatchSize" yaml:"drainBatchSize"`
}

func (c Config) cleanupInterval() time.Duration {
	return parseOrDefault(c.CleanupInterval, time.Minute)
}

func (c Config) drainInterval() time.Duration {
	return parseOrDefault(c.DrainInterval, 30*time.Second)
}

func parseOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warnf("maintenance: bad duration %q, using default %s", s, def)
		return def
	}
	return d
}

// Scheduler owns a gocron scheduler running the cache-cleanup and
// delete-drain jobs.
type Scheduler struct {
	sched gocron.Scheduler
	queue *DeleteQueue
}

// Start creates and starts a Scheduler running cache.Cleanup on
// cfg.CleanupInterval and draining queue into store.DeleteNodeTract on
// cfg.DrainInterval. queue may be nil, in which case the drain job is
// skipped entirely.
func Start(cfg Config, cache *tractcache.Cache, store tractstore.Store, queue *DeleteQueue) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "maintenance: create scheduler")
	}

	if _, err := s.NewJob(
		gocron.DurationJob(cfg.cleanupInterval()),
		gocron.NewTask(func() {
			cache.Cleanup()
		}),
	); err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "maintenance: register cache cleanup job")
	}

	if queue != nil {
		if _, err := s.NewJob(
			gocron.DurationJob(cfg.drainInterval()),
			gocron.NewTask(func() {
				drainOnce(store, queue, cfg.DrainBatchSize)
			}),
		); err != nil {
			return nil, engerr.Wrap(engerr.IOError, err, "maintenance: register delete drain job")
		}
	}

	s.Start()
	log.Infof("maintenance: scheduler started (cleanup every %s, drain every %s)",
		cfg.cleanupInterval(), cfg.drainInterval())

	return &Scheduler{sched: s, queue: queue}, nil
}

func drainOnce(store tractstore.Store, queue *DeleteQueue, batchSize int) {
	ids := queue.drain(batchSize)
	if len(ids) == 0 {
		return
	}
	ctx := context.Background()
	for _, id := range ids {
		if err := store.DeleteNodeTract(ctx, id); err != nil {
			log.Warnf("maintenance: delete node tract %d: %v", id, err)
		}
	}
	log.Debugf("maintenance: drained %d queued tract deletions", len(ids))
}

// Shutdown stops the scheduler, blocking until in-flight jobs finish.
func (m *Scheduler) Shutdown() error {
	if m == nil || m.sched == nil {
		return nil
	}
	return m.sched.Shutdown()
}
