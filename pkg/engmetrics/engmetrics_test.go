// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveMergeIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(mergesTotal)
	ObserveMerge(5 * time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(mergesTotal))
}

func TestObserveCacheLookupLabelsOutcome(t *testing.T) {
	beforeHit := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("leaf", "hit"))
	beforeMiss := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("leaf", "miss"))

	ObserveCacheLookup("leaf", true)
	ObserveCacheLookup("leaf", false)

	assert.Equal(t, beforeHit+1, testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("leaf", "hit")))
	assert.Equal(t, beforeMiss+1, testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("leaf", "miss")))
}

func TestSetFrontierSizePublishesGauges(t *testing.T) {
	SetFrontierSize(3, 7)
	assert.Equal(t, float64(3), testutil.ToFloat64(frontierSize.WithLabelValues("priority")))
	assert.Equal(t, float64(7), testutil.ToFloat64(frontierSize.WithLabelValues("current")))
}
