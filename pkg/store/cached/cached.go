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

package cached

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/store"
)

var cacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recordpipe_store_cache_requests_total",
		Help: "Total number of cached store lookups by result",
	},
	[]string{"result"}, // hit, miss
)

// Store is a read-through cache in front of another store.Store.
// Records are immutable once saved, so entries never need invalidation;
// the TTL only bounds memory.
type Store struct {
	inner store.Store
	cache *gocache.Cache
	ttl   time.Duration
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long found records stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New wraps inner.
func New(inner store.Store, opts ...Option) (*Store, error) {
	if inner == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "inner store cannot be nil")
	}
	s := &Store{inner: inner, ttl: defaults.StoreCacheTTL}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = gocache.New(s.ttl, defaults.StoreCacheCleanupInterval)
	return s, nil
}

// Save writes through to the inner store and caches the result.
func (s *Store) Save(ctx context.Context, r record.Record) (record.Persisted, error) {
	p, err := s.inner.Save(ctx, r)
	if err != nil {
		return p, err
	}
	s.cache.Set(p.ID(), p.Record.Clone(), s.ttl)
	return p, nil
}

// Find serves from cache when possible.
func (s *Store) Find(ctx context.Context, id string) (record.Record, error) {
	if v, found := s.cache.Get(id); found {
		if rec, ok := v.(record.Record); ok {
			cacheRequests.WithLabelValues("hit").Inc()
			return rec.Clone(), nil
		}
		slog.Error("unexpected cached value type", "id", id)
	}

	cacheRequests.WithLabelValues("miss").Inc()
	rec, err := s.inner.Find(ctx, id)
	if err != nil {
		return rec, err
	}
	s.cache.Set(id, rec.Clone(), s.ttl)
	return rec, nil
}

// FindAll always reads the inner store.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[record.Record, error] {
	return s.inner.FindAll(ctx)
}

// Len returns the number of cached entries, including expired ones not yet
// cleaned up.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// Close closes the inner store if it holds resources.
func (s *Store) Close() error {
	s.cache.Flush()
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
