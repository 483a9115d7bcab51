// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tract

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreshold(t *testing.T) {
	tr := New([]float32{0.4, 0.0, 0.05, 0.55})
	require.NoError(t, Threshold(tr, 0.1))
	assert.Equal(t, []float32{0.4, 0, 0, 0.55}, tr.Values)
	ComputeNorm(tr)
	assert.InDelta(t, 0.6801, tr.Norm(), 1e-3)
}

func TestLogRoundTrip(t *testing.T) {
	const nstream = 1000
	for _, x := range []float32{0, 0.001, 0.5, 1.0} {
		tr := New([]float32{x})
		require.NoError(t, DoLog(tr, nstream))
		require.NoError(t, UnLog(tr, nstream))
		assert.InDelta(t, float64(x), float64(tr.Values[0]), 1e-6)
	}
}

func TestLogFactorZeroIsPassthrough(t *testing.T) {
	tr := New([]float32{0.3, 0.7})
	require.NoError(t, DoLog(tr, 1)) // log10(1) == 0
	assert.Equal(t, []float32{0.3, 0.7}, tr.Values)
	assert.True(t, tr.InLogUnits())
}

func TestDistanceSymmetryAndIdentity(t *testing.T) {
	a := New([]float32{1, 0, 0, 0})
	b := New([]float32{0, 1, 0, 0})
	ComputeNorm(a)
	ComputeNorm(b)

	dab, err := Distance(a, b)
	require.NoError(t, err)
	dba, err := Distance(b, a)
	require.NoError(t, err)
	assert.Equal(t, dab, dba)

	daa, err := Distance(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 0, daa, 1e-6)
}

func TestDistanceZeroNormFallsBackToOne(t *testing.T) {
	a := New([]float32{0, 0, 0})
	b := New([]float32{1, 0, 0})
	ComputeNorm(a)
	ComputeNorm(b)
	d, err := Distance(a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(1), d)
}

func TestDistanceRequiresValidNorm(t *testing.T) {
	a := New([]float32{1, 0})
	b := New([]float32{0, 1})
	ComputeNorm(a)
	// b's norm never computed.
	_, err := Distance(a, b)
	assert.Error(t, err)
}

func TestMergeAssociativity(t *testing.T) {
	a := New([]float32{1, 0, 0})
	b := New([]float32{0, 1, 0})
	c := New([]float32{0, 0, 1})

	left := New(make([]float32, 3))
	ab := New(make([]float32, 3))
	require.NoError(t, MergeInto(ab, a, b, 2, 3))
	require.NoError(t, MergeInto(left, ab, c, 5, 4))

	right := New(make([]float32, 3))
	bc := New(make([]float32, 3))
	require.NoError(t, MergeInto(bc, b, c, 3, 4))
	require.NoError(t, MergeInto(right, a, bc, 2, 7))

	for i := range left.Values {
		assert.InDelta(t, float64(left.Values[i]), float64(right.Values[i]), 1e-6)
	}
}

func TestMergeRejectsLoggedInputs(t *testing.T) {
	a := New([]float32{0.2, 0.8})
	require.NoError(t, DoLog(a, 1000))
	b := New([]float32{0.3, 0.7})
	out := New(make([]float32, 2))
	err := MergeInto(out, a, b, 1, 1)
	assert.Error(t, err)
}

func TestThresholdRejectsOutOfRange(t *testing.T) {
	tr := New([]float32{0.1, 0.2})
	assert.Error(t, Threshold(tr, 1.0))
	assert.Error(t, Threshold(tr, -0.1))
}

func TestLogFactorHelper(t *testing.T) {
	assert.InDelta(t, 3.0, LogFactor(1000), 1e-9)
	assert.Equal(t, 0.0, math.Round(LogFactor(1)))
}
