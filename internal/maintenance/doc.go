// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package maintenance runs periodic background upkeep for a long-lived
// process that holds a tractcache.Cache and a tractstore.Store open
// across many builds: LRU cleanup of already-evicted-but-unflushed
// cache entries, and draining a DeleteQueue of node tract ids that
// callers have pushed for deletion.
//
// The package uses gocron the way the teacher's internal/taskmanager
// does: a single scheduler instance, one NewJob per concern, started
// and shut down as a unit.
package maintenance
