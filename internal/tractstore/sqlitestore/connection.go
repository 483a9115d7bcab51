// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sqlitestore implements internal/tractstore.Store against a
// SQLite database, grounded on the teacher's internal/repository:
// a sqlhooks-wrapped driver for query logging, golang-migrate against
// embedded migration files, and squirrel for query building.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/connectome-lab/hctree/pkg/log"
)

var registerOnce sync.Once

const driverName = "sqlite3_hctree_hooked"

func connect(path string) (*sqlx.DB, error) {
	registerOnce.Do(func() {
		sql.Register(driverName, sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &queryHooks{}))
	})

	db, err := sqlx.Open(driverName, fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	// sqlite does not multiplex writers; more than one open connection just
	// means waiting on the database-level lock.
	db.SetMaxOpenConns(1)
	return db, nil
}

// queryHooks satisfies sqlhooks.Hooks, logging every query at debug level
// the way the teacher's repository.Hooks does.
type queryHooks struct{}

func (h *queryHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("sqlitestore: query %s %q", query, args)
	return ctx, nil
}

func (h *queryHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	return ctx, nil
}
