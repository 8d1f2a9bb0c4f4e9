// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/store"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT NOT NULL UNIQUE,
	idem_key  TEXT NOT NULL UNIQUE,
	body      TEXT NOT NULL,
	stored_at INTEGER NOT NULL
);`

// Store persists records in a SQLite database.
// Records are stored as JSON; the idempotency key carries a unique index so
// concurrent saves of the same record collapse into one row.
type Store struct {
	db       *sql.DB
	path     string
	pageSize int
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets how many rows FindAll fetches per query.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use MemoryPath for a throwaway database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "sqlite path cannot be empty")
	}

	s := &Store{path: path, pageSize: defaults.StoreListPageSize}
	for _, opt := range opts {
		opt(s)
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to open database", err,
			map[string]any{"path": path})
	}
	if path == MemoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to apply schema", err,
			map[string]any{"path": path})
	}

	slog.Debug("sqlite store opened", "path", path)
	s.db = db
	return s, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", defaults.SQLiteBusyTimeout.Milliseconds()))
	if path != MemoryPath {
		q.Add("_pragma", "journal_mode(wal)")
	}
	return "file:" + path + "?" + q.Encode()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Save inserts r unless a row with the same idempotency key exists, in which
// case that row is returned as a duplicate.
func (s *Store) Save(ctx context.Context, r record.Record) (record.Persisted, error) {
	key := r.IdempotencyKey()
	rec := r.WithID(uuid.NewString())
	storedAt := time.Now().UTC()

	body, err := json.Marshal(rec)
	if err != nil {
		return record.Persisted{}, store.Fatal("encode record", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, idem_key, body, stored_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (idem_key) DO NOTHING`,
		rec.ID, key, string(body), storedAt.UnixNano())
	if err != nil {
		return record.Persisted{}, classify("save", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return record.Persisted{}, classify("save", err)
	}
	if n == 1 {
		return record.Persisted{Record: rec, StoredAt: storedAt}, nil
	}

	existing, at, err := s.scanOne(ctx, `SELECT body, stored_at FROM records WHERE idem_key = ?`, key)
	if err != nil {
		return record.Persisted{}, err
	}
	return record.Persisted{Record: existing, StoredAt: at, Duplicate: true}, nil
}

// Find returns the record stored under id.
func (s *Store) Find(ctx context.Context, id string) (record.Record, error) {
	rec, _, err := s.scanOne(ctx, `SELECT body, stored_at FROM records WHERE id = ?`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return record.Record{}, store.NotFound(id)
	}
	return rec, err
}

func (s *Store) scanOne(ctx context.Context, query string, arg string) (record.Record, time.Time, error) {
	var (
		body string
		at   int64
	)
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&body, &at); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return record.Record{}, time.Time{}, err
		}
		return record.Record{}, time.Time{}, classify("find", err)
	}
	rec, err := decode(body)
	if err != nil {
		return record.Record{}, time.Time{}, err
	}
	return rec, time.Unix(0, at).UTC(), nil
}

// FindAll yields records in insertion order, one page per query. No
// connection is held while the caller consumes a page.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		var after int64
		for {
			page, last, err := s.page(ctx, after)
			if err != nil {
				yield(record.Record{}, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			after = last
		}
	}
}

func (s *Store) page(ctx context.Context, after int64) ([]record.Record, int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, body FROM records WHERE seq > ? ORDER BY seq LIMIT ?`, after, s.pageSize)
	if err != nil {
		return nil, 0, classify("find all", err)
	}
	defer rows.Close()

	var (
		out  []record.Record
		last int64
	)
	for rows.Next() {
		var body string
		if err := rows.Scan(&last, &body); err != nil {
			return nil, 0, classify("find all", err)
		}
		rec, err := decode(body)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("find all", err)
	}
	return out, last, nil
}

func decode(body string) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return record.Record{}, store.Fatal("decode record", err)
	}
	return rec, nil
}

// classify maps driver errors onto the persistence error classes. Lock
// contention and deadlines are transient; everything else is fatal.
func classify(op string, err error) error {
	switch {
	case stderrors.Is(err, sqlite3.BUSY), stderrors.Is(err, sqlite3.LOCKED):
		return store.Retryable(op, err)
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return store.Retryable(op, err)
	default:
		return store.Fatal(op, err)
	}
}
