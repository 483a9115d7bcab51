// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDecodesConfig(t *testing.T) {
	old := Keys
	defer func() { Keys = old }()

	require.NoError(t, Init([]byte(`{"address":"nats://localhost:4222","subject":"x.progress"}`)))
	assert.Equal(t, "nats://localhost:4222", Keys.Address)
	assert.Equal(t, "x.progress", Keys.Subject)
}

func TestInitRejectsUnknownField(t *testing.T) {
	old := Keys
	defer func() { Keys = old }()

	assert.Error(t, Init([]byte(`{"address":"nats://localhost:4222","bogus":1}`)))
}

func TestNewSinkRequiresAddress(t *testing.T) {
	_, err := NewSink(&Config{})
	assert.Error(t, err)
}

// A nil Sink must be safe to call every Publish* and Close method on,
// since that's the state a deployment with no bus configured runs in.
func TestNilSinkIsANoOp(t *testing.T) {
	var s *Sink
	assert.NotPanics(t, func() {
		s.PublishMerge(MergeEvent{NodeID: 1, At: time.Now()})
		s.PublishStage(StageEvent{Stage: "done", At: time.Now()})
		s.Close()
	})
}
