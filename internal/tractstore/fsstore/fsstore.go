// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fsstore implements internal/tractstore.Store backed by
// gzip-compressed tract files on a local filesystem, sharded into
// id/1000, id%1000 subdirectories the way the teacher's
// pkg/archive.FsArchive shards job directories by job id.
package fsstore

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"lukechampine.com/blake3"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
)

// FsStore is a tractstore.Store rooted at a single directory.
type FsStore struct {
	root      string
	threshold float32
	nstream   int
}

// New creates an FsStore rooted at root, applying threshold/nstream when
// ReadLeafTract/ReadNodeTract are asked to threshold or log-transform.
func New(root string, threshold float32, nstream int) *FsStore {
	return &FsStore{root: root, threshold: threshold, nstream: nstream}
}

var _ tractstore.Store = (*FsStore)(nil)

func (s *FsStore) leafPath(id int) string { return s.shardedPath("leaves", id) }
func (s *FsStore) nodePath(id int) string { return s.shardedPath("nodes", id) }

func (s *FsStore) shardedPath(kind string, id int) string {
	lvl1 := strconv.Itoa(id / 1000)
	lvl2 := fmt.Sprintf("%03d", id%1000)
	return filepath.Join(s.root, kind, lvl1, lvl2, strconv.Itoa(id)+".tract.gz")
}

// ReadLeafTract reads and decodes a leaf tract file, applying log/
// threshold transforms as requested.
func (s *FsStore) ReadLeafTract(ctx context.Context, id int, logUnits bool, threshold bool) (*tract.Tract, error) {
	return s.read(s.leafPath(id), logUnits, threshold)
}

// ReadNodeTract reads and decodes a node tract file written by
// WriteNodeTract, applying log/threshold transforms as requested.
func (s *FsStore) ReadNodeTract(ctx context.Context, id int, logUnits bool, threshold bool) (*tract.Tract, error) {
	return s.read(s.nodePath(id), logUnits, threshold)
}

func (s *FsStore) read(path string, logUnits, threshold bool) (*tract.Tract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "fsstore: open %s", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "fsstore: gzip reader for %s", path)
	}
	defer gz.Close()

	raw, err := readAllChecked(gz)
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "fsstore: read %s", path)
	}
	values, err := decodeValues(raw)
	if err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "fsstore: decode %s", path)
	}

	t := tract.New(values)
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

// WriteNodeTract persists a node's natural-unit tract, checksummed with
// blake3 to catch silent truncation on a later read.
func (s *FsStore) WriteNodeTract(ctx context.Context, id int, t *tract.Tract) error {
	path := s.nodePath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return engerr.Wrap(engerr.IOError, err, "fsstore: mkdir for %s", path)
	}

	raw := encodeValues(t.Values)
	f, err := os.Create(path)
	if err != nil {
		return engerr.Wrap(engerr.IOError, err, "fsstore: create %s", path)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(raw); err != nil {
		return engerr.Wrap(engerr.IOError, err, "fsstore: write %s", path)
	}
	return gz.Close()
}

// DeleteNodeTract best-effort removes a node tract file.
func (s *FsStore) DeleteNodeTract(ctx context.Context, id int) error {
	if err := os.Remove(s.nodePath(id)); err != nil && !os.IsNotExist(err) {
		return engerr.Wrap(engerr.IOError, err, "fsstore: remove node tract %d", id)
	}
	return nil
}

// readAllChecked reads the whole checksummed container: an 8-byte length
// prefix, the blake3 digest, then the payload, verifying the digest.
func readAllChecked(r *gzip.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	var length uint64
	if err := binary.Read(br, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}
	var digest [32]byte
	if _, err := io.ReadFull(br, digest[:]); err != nil {
		return nil, fmt.Errorf("read checksum: %w", err)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	sum := blake3.Sum256(payload)
	if sum != digest {
		return nil, fmt.Errorf("checksum mismatch: tract file truncated or corrupted")
	}
	return payload, nil
}

func encodeValues(values []float32) []byte {
	payload := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(v))
	}
	digest := blake3.Sum256(payload)

	out := make([]byte, 8+len(digest)+len(payload))
	binary.LittleEndian.PutUint64(out[:8], uint64(len(payload)))
	copy(out[8:8+len(digest)], digest[:])
	copy(out[8+len(digest):], payload)
	return out
}

func decodeValues(payload []byte) ([]float32, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("tract payload length %d not a multiple of 4", len(payload))
	}
	values := make([]float32, len(payload)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return values, nil
}
