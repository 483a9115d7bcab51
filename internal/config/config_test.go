// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, name, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidJSON(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{
		"threads": 4,
		"neighborOrder": 6,
		"dMax": 1.0,
		"nstream": 1000,
		"threshold": 0.2,
		"cacheBudgetGB": 2.0,
		"cacheRatio": 2.0,
		"growMode": "to_size",
		"growSize": 100,
		"growCount": 0,
		"encoding": "float",
		"tauMatch": 0.9,
		"dEucMax": 5.0,
		"alpha": 0.1
	}`)
	require.NoError(t, Load(path))
	assert.Equal(t, 4, Keys.Threads)
	assert.Equal(t, GrowToSize, Keys.GrowMode)
}

func TestLoadValidYAML(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", `
threads: 2
neighborOrder: 18
dMax: 0.8
cacheBudgetGB: 1.5
cacheRatio: 2.5
growMode: "off"
encoding: vista
tauMatch: 0.85
dEucMax: 4.0
`)
	require.NoError(t, Load(path))
	assert.Equal(t, 18, Keys.NeighborOrder)
	assert.Equal(t, EncodingVista, Keys.Encoding)
}

func TestLoadRejectsBadNeighborOrder(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{
		"threads": 1, "neighborOrder": 7, "dMax": 1.0, "cacheBudgetGB": 1.0,
		"cacheRatio": 2.0, "growMode": "off", "encoding": "float",
		"tauMatch": 0.9, "dEucMax": 5.0
	}`)
	assert.Error(t, Load(path))
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{
		"threads": 1, "neighborOrder": 6, "dMax": 1.0, "cacheBudgetGB": 1.0,
		"cacheRatio": 2.0, "growMode": "off", "encoding": "float",
		"tauMatch": 0.9, "dEucMax": 5.0, "bogusField": 1
	}`)
	assert.Error(t, Load(path))
}

func TestLoadDotEnvMissingFileIsNotError(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nonexistent.env")))
}
