// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
)

func openTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hctree.db")
	s, err := Open(path, 0.1, 1000)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteReadNodeTractRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	orig := tract.New([]float32{0.5, 1.5, 0, 3.25})
	require.NoError(t, s.WriteNodeTract(ctx, 7, orig))

	got, err := s.ReadNodeTract(ctx, 7, false, false)
	require.NoError(t, err)
	assert.Equal(t, orig.Values, got.Values)
}

func TestWriteNodeTractUpsertsOnConflict(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.WriteNodeTract(ctx, 1, tract.New([]float32{1, 2})))
	require.NoError(t, s.WriteNodeTract(ctx, 1, tract.New([]float32{9, 9, 9})))

	got, err := s.ReadNodeTract(ctx, 1, false, false)
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 9, 9}, got.Values)
}

func TestReadNodeTractMissingRowIsError(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReadNodeTract(context.Background(), 99, false, false)
	assert.Error(t, err)
}

func TestDeleteNodeTractToleratesMissing(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.DeleteNodeTract(context.Background(), 123))
}

func TestDeleteNodeTractRemovesRow(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.WriteNodeTract(ctx, 1, tract.New([]float32{1, 2})))
	require.NoError(t, s.DeleteNodeTract(ctx, 1))
	_, err := s.ReadNodeTract(ctx, 1, false, false)
	assert.Error(t, err)
}

func TestWriteLeafTractThenReadLeafTract(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.WriteLeafTract(ctx, 3, tract.New([]float32{4, 5, 6})))

	got, err := s.ReadLeafTract(ctx, 3, false, false)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6}, got.Values)
}

func TestROIRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	roi := &tractstore.ROI{
		GridDims:    [3]int{10, 10, 10},
		Seeds:       [][3]int{{1, 1, 1}, {2, 2, 2}},
		TrackIDs:    []int{100, 101},
		NStreamline: []int{5000, 6000},
	}
	require.NoError(t, s.WriteROI(ctx, roi))

	got, err := s.LoadROI(ctx)
	require.NoError(t, err)
	assert.Equal(t, roi, got)
}

func TestLoadROIMissingRowIsError(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadROI(context.Background())
	assert.Error(t, err)
}
