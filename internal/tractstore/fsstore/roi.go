// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fsstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
)

// roiFile is the on-disk JSON shape of the ROI sidecar written next to
// an FsStore's sharded tract tree. Field names are lowerCamel, matching
// this repo's own config/schema convention rather than the teacher's
// (the teacher has no ROI file of its own to match).
type roiFile struct {
	GridDims    [3]int   `json:"gridDims"`
	Seeds       [][3]int `json:"seeds"`
	TrackIDs    []int    `json:"trackIds"`
	NStreamline []int    `json:"nstreamline"`
}

func (s *FsStore) roiPath() string { return filepath.Join(s.root, "roi.json") }

// LoadROI reads the grid/seed/streamline-count sidecar written by
// WriteROI.
func (s *FsStore) LoadROI(ctx context.Context) (*tractstore.ROI, error) {
	f, err := os.Open(s.roiPath())
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "fsstore: open roi sidecar at %s", s.roiPath())
	}
	defer f.Close()

	var rf roiFile
	if err := json.NewDecoder(f).Decode(&rf); err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "fsstore: decode roi sidecar at %s", s.roiPath())
	}
	return &tractstore.ROI{
		GridDims:    rf.GridDims,
		Seeds:       rf.Seeds,
		TrackIDs:    rf.TrackIDs,
		NStreamline: rf.NStreamline,
	}, nil
}

// WriteROI persists the grid/seed/streamline-count sidecar describing
// this store's seed set. Tools that stage a fresh tract tree call this
// once before the builder ever runs.
func (s *FsStore) WriteROI(ctx context.Context, roi *tractstore.ROI) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return engerr.Wrap(engerr.IOError, err, "fsstore: mkdir roi root %s", s.root)
	}
	rf := roiFile{
		GridDims:    roi.GridDims,
		Seeds:       roi.Seeds,
		TrackIDs:    roi.TrackIDs,
		NStreamline: roi.NStreamline,
	}
	f, err := os.Create(s.roiPath())
	if err != nil {
		return engerr.Wrap(engerr.IOError, err, "fsstore: create roi sidecar at %s", s.roiPath())
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rf)
}
