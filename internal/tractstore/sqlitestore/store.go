// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
)

// SqliteStore is a tractstore.Store backed by a single SQLite database
// file: leaf and node tracts live in their own tables keyed by id, the
// ROI in a singleton JSON row.
type SqliteStore struct {
	db        *sqlx.DB
	threshold float32
	nstream   int
}

var _ tractstore.Store = (*SqliteStore)(nil)

// Open connects to (creating if necessary) the SQLite database at path
// and brings its schema up to date.
func Open(path string, threshold float32, nstream int) (*SqliteStore, error) {
	db, err := connect(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{db: db, threshold: threshold, nstream: nstream}, nil
}

// Close releases the underlying database handle.
func (s *SqliteStore) Close() error { return s.db.Close() }

func (s *SqliteStore) ReadLeafTract(ctx context.Context, id int, logUnits, threshold bool) (*tract.Tract, error) {
	return s.read(ctx, "leaf_tracts", id, logUnits, threshold)
}

func (s *SqliteStore) ReadNodeTract(ctx context.Context, id int, logUnits, threshold bool) (*tract.Tract, error) {
	return s.read(ctx, "node_tracts", id, logUnits, threshold)
}

func (s *SqliteStore) read(ctx context.Context, table string, id int, logUnits, threshold bool) (*tract.Tract, error) {
	query, args, err := sq.Select("payload").From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: build select: %w", err)
	}

	var payload []byte
	if err := s.db.GetContext(ctx, &payload, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, engerr.New(engerr.IOError, "sqlitestore: no %s row for id %d", table, id)
		}
		return nil, engerr.Wrap(engerr.IOError, err, "sqlitestore: read %s id %d", table, id)
	}

	values, err := decodeValues(payload)
	if err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "sqlitestore: decode %s id %d", table, id)
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

// WriteNodeTract upserts a node's natural-unit tract payload.
func (s *SqliteStore) WriteNodeTract(ctx context.Context, id int, t *tract.Tract) error {
	query, args, err := sq.Insert("node_tracts").
		Columns("id", "payload").
		Values(id, encodeValues(t.Values)).
		Suffix("ON CONFLICT(id) DO UPDATE SET payload = excluded.payload").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlitestore: build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return engerr.Wrap(engerr.IOError, err, "sqlitestore: write node tract %d", id)
	}
	return nil
}

// DeleteNodeTract best-effort removes a node tract row.
func (s *SqliteStore) DeleteNodeTract(ctx context.Context, id int) error {
	query, args, err := sq.Delete("node_tracts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlitestore: build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return engerr.Wrap(engerr.IOError, err, "sqlitestore: delete node tract %d", id)
	}
	return nil
}

// WriteLeafTract seeds a leaf tract row (not part of Store; used by the
// tooling that first imports tractography data into this backend).
func (s *SqliteStore) WriteLeafTract(ctx context.Context, id int, t *tract.Tract) error {
	query, args, err := sq.Insert("leaf_tracts").
		Columns("id", "payload").
		Values(id, encodeValues(t.Values)).
		Suffix("ON CONFLICT(id) DO UPDATE SET payload = excluded.payload").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlitestore: build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return engerr.Wrap(engerr.IOError, err, "sqlitestore: write leaf tract %d", id)
	}
	return nil
}

func (s *SqliteStore) LoadROI(ctx context.Context) (*tractstore.ROI, error) {
	query, args, err := sq.Select("data").From("roi").Where(sq.Eq{"id": 1}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: build select: %w", err)
	}
	var data string
	if err := s.db.GetContext(ctx, &data, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, engerr.New(engerr.IOError, "sqlitestore: no roi row")
		}
		return nil, engerr.Wrap(engerr.IOError, err, "sqlitestore: load roi")
	}
	var roi tractstore.ROI
	if err := json.Unmarshal([]byte(data), &roi); err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "sqlitestore: decode roi")
	}
	return &roi, nil
}

// WriteROI upserts the singleton ROI row.
func (s *SqliteStore) WriteROI(ctx context.Context, roi *tractstore.ROI) error {
	data, err := json.Marshal(roi)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode roi: %w", err)
	}
	query, args, err := sq.Insert("roi").
		Columns("id", "data").
		Values(1, string(data)).
		Suffix("ON CONFLICT(id) DO UPDATE SET data = excluded.data").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlitestore: build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return engerr.Wrap(engerr.IOError, err, "sqlitestore: write roi")
	}
	return nil
}

func encodeValues(values []float32) []byte {
	payload := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(v))
	}
	return payload
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
