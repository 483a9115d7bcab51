// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package avroencoding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
)

func TestEncodeDecodeTractRoundTrip(t *testing.T) {
	orig := tract.New([]float32{0.5, -1.25, 0, 3.75})
	buf, err := EncodeTract(orig)
	require.NoError(t, err)

	got, err := DecodeTract(buf)
	require.NoError(t, err)
	assert.Equal(t, orig.Values, got.Values)
}

func TestEncodeDecodeROIRoundTrip(t *testing.T) {
	roi := &tractstore.ROI{
		GridDims:    [3]int{10, 20, 30},
		Seeds:       [][3]int{{1, 2, 3}, {4, 5, 6}},
		TrackIDs:    []int{100, 200},
		NStreamline: []int{5000, 6000},
	}
	buf, err := EncodeROI(roi)
	require.NoError(t, err)

	got, err := DecodeROI(buf)
	require.NoError(t, err)
	assert.Equal(t, roi, got)
}

func TestStoreWriteReadNodeTractRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), 0.1, 1000)

	orig := tract.New([]float32{1, 2, 3})
	require.NoError(t, s.WriteNodeTract(ctx, 5, orig))

	got, err := s.ReadNodeTract(ctx, 5, false, false)
	require.NoError(t, err)
	assert.Equal(t, orig.Values, got.Values)
}

func TestStoreDeleteNodeTractToleratesMissing(t *testing.T) {
	s := New(t.TempDir(), 0.1, 1000)
	assert.NoError(t, s.DeleteNodeTract(context.Background(), 42))
}

func TestStoreROIRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), 0.1, 1000)

	roi := &tractstore.ROI{
		GridDims:    [3]int{1, 1, 1},
		Seeds:       [][3]int{{0, 0, 0}},
		TrackIDs:    []int{7},
		NStreamline: []int{1000},
	}
	require.NoError(t, s.WriteROI(ctx, roi))

	got, err := s.LoadROI(ctx)
	require.NoError(t, err)
	assert.Equal(t, roi, got)
}
