// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package avroencoding

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
)

// Store is a tractstore.Store that persists every tract and the ROI as
// Avro binary records on a local filesystem, one file per id/roi.
type Store struct {
	root      string
	threshold float32
	nstream   int
}

var _ tractstore.Store = (*Store)(nil)

// New creates a Store rooted at root.
func New(root string, threshold float32, nstream int) *Store {
	return &Store{root: root, threshold: threshold, nstream: nstream}
}

func (s *Store) leafPath(id int) string {
	return filepath.Join(s.root, "leaves", strconv.Itoa(id)+".avro")
}

func (s *Store) nodePath(id int) string {
	return filepath.Join(s.root, "nodes", strconv.Itoa(id)+".avro")
}

func (s *Store) roiPath() string { return filepath.Join(s.root, "roi.avro") }

func (s *Store) ReadLeafTract(ctx context.Context, id int, logUnits, threshold bool) (*tract.Tract, error) {
	return s.read(s.leafPath(id), logUnits, threshold)
}

func (s *Store) ReadNodeTract(ctx context.Context, id int, logUnits, threshold bool) (*tract.Tract, error) {
	return s.read(s.nodePath(id), logUnits, threshold)
}

func (s *Store) read(path string, logUnits, threshold bool) (*tract.Tract, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "avroencoding: read %s", path)
	}
	t, err := DecodeTract(raw)
	if err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "avroencoding: decode %s", path)
	}
	if threshold && s.threshold > 0 {
		if err := tract.Threshold(t, s.threshold); err != nil {
			return nil, err
		}
	}
	if logUnits && s.nstream > 0 {
		if err := tract.DoLog(t, s.nstream); err != nil {
			return nil, err
		}
	}
	tract.ComputeNorm(t)
	return t, nil
}

// WriteNodeTract encodes and persists a node's natural-unit tract.
func (s *Store) WriteNodeTract(ctx context.Context, id int, t *tract.Tract) error {
	path := s.nodePath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return engerr.Wrap(engerr.IOError, err, "avroencoding: mkdir for %s", path)
	}
	buf, err := EncodeTract(t)
	if err != nil {
		return engerr.Wrap(engerr.Corruption, err, "avroencoding: encode %s", path)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return engerr.Wrap(engerr.IOError, err, "avroencoding: write %s", path)
	}
	return nil
}

// DeleteNodeTract best-effort removes a node tract file.
func (s *Store) DeleteNodeTract(ctx context.Context, id int) error {
	if err := os.Remove(s.nodePath(id)); err != nil && !os.IsNotExist(err) {
		return engerr.Wrap(engerr.IOError, err, "avroencoding: remove node tract %d", id)
	}
	return nil
}

// WriteLeafTract seeds a leaf tract file (used by import tooling, not
// part of Store).
func (s *Store) WriteLeafTract(ctx context.Context, id int, t *tract.Tract) error {
	path := s.leafPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return engerr.Wrap(engerr.IOError, err, "avroencoding: mkdir for %s", path)
	}
	buf, err := EncodeTract(t)
	if err != nil {
		return engerr.Wrap(engerr.Corruption, err, "avroencoding: encode %s", path)
	}
	return os.WriteFile(path, buf, 0o644)
}

func (s *Store) LoadROI(ctx context.Context) (*tractstore.ROI, error) {
	raw, err := os.ReadFile(s.roiPath())
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "avroencoding: read roi")
	}
	roi, err := DecodeROI(raw)
	if err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "avroencoding: decode roi")
	}
	return roi, nil
}

// WriteROI encodes and persists the seed ROI.
func (s *Store) WriteROI(ctx context.Context, roi *tractstore.ROI) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return engerr.Wrap(engerr.IOError, err, "avroencoding: mkdir %s", s.root)
	}
	buf, err := EncodeROI(roi)
	if err != nil {
		return engerr.Wrap(engerr.Corruption, err, "avroencoding: encode roi")
	}
	return os.WriteFile(s.roiPath(), buf, 0o644)
}
