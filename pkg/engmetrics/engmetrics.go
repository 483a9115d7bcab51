// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engmetrics exposes prometheus counters and histograms for the
// agglomerative builder: merges per run, per-merge duration, cache hit
// rate, and frontier (priority/current) size over time. Metrics are
// package-global and registered once via promauto, the way the example
// graph-query services in the surveyed corpus instrument their own hot
// loops.
package engmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hctree_builder_merges_total",
		Help: "Number of completed agglomerative merge steps.",
	})

	mergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hctree_builder_merge_duration_seconds",
		Help:    "Wall-clock time of a single merge step.",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
	})

	cacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hctree_tractcache_requests_total",
		Help: "Tract cache lookups, partitioned by tier and outcome.",
	}, []string{"tier", "outcome"})

	frontierSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hctree_builder_frontier_size",
		Help: "Current size of the builder's priority/current frontier sets.",
	}, []string{"set"})

	cacheBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hctree_tractcache_bytes",
		Help: "Estimated bytes currently held by each cache tier.",
	}, []string{"tier"})
)

// ObserveMerge records one completed merge step.
func ObserveMerge(d time.Duration) {
	mergesTotal.Inc()
	mergeDuration.Observe(d.Seconds())
}

// ObserveCacheLookup records a cache Get for the named tier ("leaf" or
// "node"), hit or miss.
func ObserveCacheLookup(tier string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheRequestsTotal.WithLabelValues(tier, outcome).Inc()
}

// SetFrontierSize publishes the current priority/current set sizes.
func SetFrontierSize(priority, current int) {
	frontierSize.WithLabelValues("priority").Set(float64(priority))
	frontierSize.WithLabelValues("current").Set(float64(current))
}

// SetCacheBytes publishes the current estimated byte usage per tier.
func SetCacheBytes(leaf, node int) {
	cacheBytes.WithLabelValues("leaf").Set(float64(leaf))
	cacheBytes.WithLabelValues("node").Set(float64(node))
}
