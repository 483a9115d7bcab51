// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tractstore defines the opaque "tract store" the engine consumes
// (§6): the ability to read and write leaf/node tracts and to load the
// seed region-of-interest, without the engine knowing anything about the
// on-disk encoding. Concrete backends (fsstore, sqlitestore, s3store,
// avroencoding) implement Store; tests use a tiny in-memory Store.
package tractstore

import (
	"context"

	"github.com/connectome-lab/hctree/pkg/tract"
)

// ROI is the seed region-of-interest loaded once at startup: the grid
// dimensions, the set of seed coordinates (index-aligned with seed ids),
// the streamline-count table used to derive each seed's log factor, and
// the track-id table external tooling uses to reference seeds.
type ROI struct {
	GridDims    [3]int
	Seeds       [][3]int
	TrackIDs    []int
	NStreamline []int
}

// Store is the tract store interface the engine requires of its
// environment. Implementations must make ReadLeafTract/ReadNodeTract safe
// for concurrent callers; WriteNodeTract is idempotent by id and has a
// single writer per id (the merge event that produced it).
type Store interface {
	// ReadLeafTract returns seed id's tract. log selects log-unit vs.
	// natural-unit; threshold selects whether to apply the store's
	// configured relative cutoff before returning.
	ReadLeafTract(ctx context.Context, id int, log bool, threshold bool) (*tract.Tract, error)
	// ReadNodeTract returns the natural-unit mean tract written for node
	// id by the merge event that created it.
	ReadNodeTract(ctx context.Context, id int, log bool, threshold bool) (*tract.Tract, error)
	// WriteNodeTract persists a node's merged natural-unit tract.
	WriteNodeTract(ctx context.Context, id int, t *tract.Tract) error
	// DeleteNodeTract best-effort removes a node tract file; errors are
	// logged by the caller, never fatal.
	DeleteNodeTract(ctx context.Context, id int) error
	// LoadROI loads the seed grid, dimensions, coordinates and
	// streamline counts.
	LoadROI(ctx context.Context) (*ROI, error)
}
