// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the engine's runtime configuration:
// thread count, tract log factor, relative threshold, cache memory
// budget, neighbor order, growth policy, and tract container encoding.
// Mirrors the teacher's internal/config.Init + pkg/schema.Validate split.
// Only the CLI layer reads the package-global Keys: it copies the fields
// the engine needs into the explicit per-package Config values
// (neighbor.Config, builder.Config) that the C5/C6 entry points take.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Encoding selects the on-disk tract container format.
type Encoding string

const (
	EncodingFloat  Encoding = "float"  // plain float32 natural/compact container
	EncodingVista  Encoding = "vista"  // byte-compressed container
	EncodingAvro   Encoding = "avro"   // goavro-encoded container
)

// GrowModeName mirrors pkg/builder.GrowMode as a string for config files.
type GrowModeName string

const (
	GrowOff      GrowModeName = "off"
	GrowToSize   GrowModeName = "to_size"
	GrowToCount  GrowModeName = "to_count"
)

// EngineConfig is the full set of knobs the engine needs; the CLI copies
// its fields into the per-package Config values of the C5/C6 entry points.
type EngineConfig struct {
	Threads int `json:"threads" yaml:"threads" validate:"gte=1"`

	NeighborOrder int     `json:"neighborOrder" yaml:"neighborOrder" validate:"oneof=6 18 26 32 92 124"`
	DMax          float32 `json:"dMax" yaml:"dMax" validate:"gt=0"`

	NStream   int     `json:"nstream" yaml:"nstream" validate:"gte=0"`
	Threshold float32 `json:"threshold" yaml:"threshold" validate:"gte=0,lt=1"`

	CacheBudgetGB float64 `json:"cacheBudgetGB" yaml:"cacheBudgetGB" validate:"gt=0"`
	CacheRatio    float64 `json:"cacheRatio" yaml:"cacheRatio" validate:"gt=0"`

	// TractReadsPerSecond caps tract-store reads issued by the C5/C6
	// parallel fan-outs, independent of goroutine count. 0 disables
	// limiting.
	TractReadsPerSecond float64 `json:"tractReadsPerSecond" yaml:"tractReadsPerSecond" validate:"gte=0"`

	GrowMode  GrowModeName `json:"growMode" yaml:"growMode" validate:"oneof=off to_size to_count"`
	GrowSize  int          `json:"growSize" yaml:"growSize" validate:"gte=0"`
	GrowCount int          `json:"growCount" yaml:"growCount" validate:"gte=0"`

	Encoding Encoding `json:"encoding" yaml:"encoding" validate:"oneof=float vista avro"`

	TauMatch float32 `json:"tauMatch" yaml:"tauMatch" validate:"gte=0,lte=1"`
	DEucMax  float32 `json:"dEucMax" yaml:"dEucMax" validate:"gt=0"`
	Alpha    float64 `json:"alpha" yaml:"alpha" validate:"gte=0"`
}

// Keys is the process-global configuration populated by the CLI layer
// from flags/.env/file, for the convenience of cmd/* flag wiring. Library
// code never reads Keys directly.
var Keys = EngineConfig{
	Threads:       1,
	NeighborOrder: 6,
	DMax:          1.0,
	CacheBudgetGB: 1.0,
	CacheRatio:    2.0,
	GrowMode:      GrowOff,
	Encoding:      EncodingFloat,
	TauMatch:      0.9,
	DEucMax:       5.0,
}

var validate = validator.New()

// Load reads path (JSON or YAML, selected by extension) into Keys,
// validating against the embedded JSON schema (for JSON input) and the
// struct-tag rules (for either format).
func Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Keys
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("config: parse yaml: %w", err)
		}
	default:
		if err := ValidateJSONSchema(bytes.NewReader(raw)); err != nil {
			return fmt.Errorf("config: schema validation: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return fmt.Errorf("config: parse json: %w", err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	Keys = cfg
	return nil
}
