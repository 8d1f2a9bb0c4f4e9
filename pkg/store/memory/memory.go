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

package memory

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/store"
)

type entry struct {
	rec      record.Record
	storedAt time.Time
}

// Store keeps records in process memory. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*entry
	byKey map[string]string // idempotency key -> id
	order []string
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:  make(map[string]*entry),
		byKey: make(map[string]string),
		now:   time.Now,
	}
}

// Save stores r under a new uuid unless an entry with the same idempotency
// key exists, in which case that entry is returned as a duplicate.
func (s *Store) Save(ctx context.Context, r record.Record) (record.Persisted, error) {
	if err := ctx.Err(); err != nil {
		return record.Persisted{}, store.Retryable("save", err)
	}

	key := r.IdempotencyKey()

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[key]; ok {
		e := s.byID[id]
		return record.Persisted{Record: e.rec.Clone(), StoredAt: e.storedAt, Duplicate: true}, nil
	}

	e := &entry{rec: r.WithID(uuid.NewString()), storedAt: s.now().UTC()}
	s.byID[e.rec.ID] = e
	s.byKey[key] = e.rec.ID
	s.order = append(s.order, e.rec.ID)

	return record.Persisted{Record: e.rec.Clone(), StoredAt: e.storedAt}, nil
}

// Find returns the record stored under id.
func (s *Store) Find(ctx context.Context, id string) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, store.Retryable("find", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return record.Record{}, store.NotFound(id)
	}
	return e.rec.Clone(), nil
}

// FindAll yields records in insertion order. Each traversal sees the
// records present when it reaches them; the lock is not held while yielding.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		for i := 0; ; i++ {
			if err := ctx.Err(); err != nil {
				yield(record.Record{}, store.Retryable("find all", err))
				return
			}

			s.mu.RLock()
			if i >= len(s.order) {
				s.mu.RUnlock()
				return
			}
			rec := s.byID[s.order[i]].rec.Clone()
			s.mu.RUnlock()

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
