// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package s3store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValuesRoundTrip(t *testing.T) {
	values := []float32{0.5, -1.25, 0, 3.75}
	payload := encodeValues(values)
	got, err := decodeValues(payload)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestDecodeValuesRejectsBadLength(t *testing.T) {
	_, err := decodeValues([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestOpenRequiresBucket(t *testing.T) {
	_, err := Open(context.Background(), Config{Region: "us-east-1"}, 0, 0)
	assert.Error(t, err)
}

func TestLeafAndNodeKeysAreDistinct(t *testing.T) {
	assert.NotEqual(t, leafKey(5), nodeKey(5))
}
