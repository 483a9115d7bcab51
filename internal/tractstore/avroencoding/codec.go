// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package avroencoding encodes tracts and the seed ROI as Avro binary
// records via goavro/v2. The teacher's own internal/avro package never
// actually calls goavro despite its name (it hand-rolls a checkpoint
// binary format for metric time series); this package is where the
// dependency the teacher's go.mod already carries gets put to real use.
package avroencoding

import (
	"fmt"

	"github.com/linkedin/goavro/v2"

	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
)

const tractSchema = `{
	"type": "record",
	"name": "Tract",
	"fields": [
		{"name": "values", "type": {"type": "array", "items": "float"}}
	]
}`

const roiSchema = `{
	"type": "record",
	"name": "ROI",
	"fields": [
		{"name": "gridDims", "type": {"type": "array", "items": "int"}},
		{"name": "seeds", "type": {"type": "array", "items": {"type": "array", "items": "int"}}},
		{"name": "trackIds", "type": {"type": "array", "items": "int"}},
		{"name": "nstreamline", "type": {"type": "array", "items": "int"}}
	]
}`

var (
	tractCodec = mustCodec(tractSchema)
	roiCodec   = mustCodec(roiSchema)
)

func mustCodec(schema string) *goavro.Codec {
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		panic(fmt.Sprintf("avroencoding: invalid schema: %v", err))
	}
	return codec
}

// EncodeTract serializes t's values as a single Avro binary record.
func EncodeTract(t *tract.Tract) ([]byte, error) {
	native := map[string]interface{}{"values": toInterfaceSlice(t.Values)}
	buf, err := tractCodec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("avroencoding: encode tract: %w", err)
	}
	return buf, nil
}

// DecodeTract deserializes an Avro binary record produced by EncodeTract.
func DecodeTract(buf []byte) (*tract.Tract, error) {
	native, _, err := tractCodec.NativeFromBinary(buf)
	if err != nil {
		return nil, fmt.Errorf("avroencoding: decode tract: %w", err)
	}
	rec, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("avroencoding: decode tract: unexpected native type %T", native)
	}
	raw, ok := rec["values"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("avroencoding: decode tract: unexpected values type %T", rec["values"])
	}
	values := make([]float32, len(raw))
	for i, v := range raw {
		values[i] = v.(float32)
	}
	return tract.New(values), nil
}

// EncodeROI serializes roi as a single Avro binary record.
func EncodeROI(roi *tractstore.ROI) ([]byte, error) {
	native := map[string]interface{}{
		"gridDims":    []interface{}{int32(roi.GridDims[0]), int32(roi.GridDims[1]), int32(roi.GridDims[2])},
		"seeds":       encodeCoords(roi.Seeds),
		"trackIds":    toInt32Slice(roi.TrackIDs),
		"nstreamline": toInt32Slice(roi.NStreamline),
	}
	buf, err := roiCodec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("avroencoding: encode roi: %w", err)
	}
	return buf, nil
}

// DecodeROI deserializes an Avro binary record produced by EncodeROI.
func DecodeROI(buf []byte) (*tractstore.ROI, error) {
	native, _, err := roiCodec.NativeFromBinary(buf)
	if err != nil {
		return nil, fmt.Errorf("avroencoding: decode roi: %w", err)
	}
	rec, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("avroencoding: decode roi: unexpected native type %T", native)
	}

	grid := rec["gridDims"].([]interface{})
	roi := &tractstore.ROI{
		GridDims:    [3]int{int(grid[0].(int32)), int(grid[1].(int32)), int(grid[2].(int32))},
		Seeds:       decodeCoords(rec["seeds"].([]interface{})),
		TrackIDs:    fromInt32Slice(rec["trackIds"].([]interface{})),
		NStreamline: fromInt32Slice(rec["nstreamline"].([]interface{})),
	}
	return roi, nil
}

func toInterfaceSlice(values []float32) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func toInt32Slice(values []int) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out
}

func fromInt32Slice(values []interface{}) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v.(int32))
	}
	return out
}

func encodeCoords(coords [][3]int) []interface{} {
	out := make([]interface{}, len(coords))
	for i, c := range coords {
		out[i] = []interface{}{int32(c[0]), int32(c[1]), int32(c[2])}
	}
	return out
}

func decodeCoords(raw []interface{}) [][3]int {
	out := make([][3]int, len(raw))
	for i, v := range raw {
		c := v.([]interface{})
		out[i] = [3]int{int(c[0].(int32)), int(c[1].(int32)), int(c[2].(int32))}
	}
	return out
}
