// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package builder implements the agglomerative builder (C6): the
// two-tier priority/current proto-node frontier, the optional growing
// stage that produces the base-node set, the global stage, and the
// per-merge neighbor-update fan-out.
package builder

import "github.com/connectome-lab/hctree/internal/events"

// GrowMode selects the builder's growing-stage policy.
type GrowMode int

const (
	// GrowOff skips the growing stage; the builder starts directly in
	// the global stage with activeSize = prioritySize = Nseeds.
	GrowOff GrowMode = iota
	// GrowToSize ends the growing stage once prioritySize reaches Size.
	GrowToSize
	// GrowToCount ends the growing stage once the combined frontier
	// (priority + current) shrinks to Count.
	GrowToCount
)

// GrowPolicy is the grow_policy parameter from §4.6.
type GrowPolicy struct {
	Mode  GrowMode
	Size  int // used when Mode == GrowToSize
	Count int // used when Mode == GrowToCount
}

// Config is the builder's runtime configuration.
type Config struct {
	Grow GrowPolicy

	// NStream is the streamline count used for the node tract cache's
	// log/threshold transform (§4.1's L = log10(Nstream)).
	NStream int
	// Threshold is the relative cutoff applied to node tracts before
	// they are cached and compared.
	Threshold float32

	// CacheBudgetBytes is the total byte budget split between the leaf
	// and node cache tiers per §4.2.
	CacheBudgetBytes int
	// Ratio is rho, the natural/compact leaf tract size ratio observed
	// at startup.
	Ratio float64

	// Events is an optional progress sink; nil disables publishing.
	Events *events.Sink

	// ReadsPerSecond caps the rate of tract-store reads issued by the
	// per-merge neighbor-update fan-out, independent of how many
	// goroutines it spins up. 0 disables limiting.
	ReadsPerSecond float64
}
