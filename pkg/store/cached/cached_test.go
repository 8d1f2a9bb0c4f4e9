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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/store"
	"github.com/NVIDIA/recordpipe/pkg/store/memory"
	"github.com/NVIDIA/recordpipe/pkg/store/storetest"
)

// countingStore counts Find calls that reach the wrapped store.
type countingStore struct {
	store.Store
	finds atomic.Int32
}

func (c *countingStore) Find(ctx context.Context, id string) (record.Record, error) {
	c.finds.Add(1)
	return c.Store.Find(ctx, id)
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(memory.New())
		require.NoError(t, err)
		return s
	})
}

func TestNew_NilInner(t *testing.T) {
	_, err := New(nil)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestFind_ServedFromCache(t *testing.T) {
	inner := &countingStore{Store: memory.New()}
	s, err := New(inner)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := inner.Store.Save(ctx, storetest.Sample("carpet"))
	require.NoError(t, err)

	for range 3 {
		got, err := s.Find(ctx, p.ID())
		require.NoError(t, err)
		assert.Equal(t, "carpet", got.Name)
	}
	assert.Equal(t, int32(1), inner.finds.Load())
	assert.Equal(t, 1, s.Len())
}

func TestSave_PopulatesCache(t *testing.T) {
	inner := &countingStore{Store: memory.New()}
	s, err := New(inner)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := s.Save(ctx, storetest.Sample("carpet"))
	require.NoError(t, err)

	_, err = s.Find(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, int32(0), inner.finds.Load())
}

func TestFind_CachedCopyIsIsolated(t *testing.T) {
	s, err := New(memory.New())
	require.NoError(t, err)
	ctx := context.Background()

	p, err := s.Save(ctx, storetest.Sample("carpet"))
	require.NoError(t, err)

	got, err := s.Find(ctx, p.ID())
	require.NoError(t, err)
	got.Labels["site"] = "mutated"

	again, err := s.Find(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "hq", again.Labels["site"])
}

func TestFind_NotFoundIsNotCached(t *testing.T) {
	inner := &countingStore{Store: memory.New()}
	s, err := New(inner)
	require.NoError(t, err)

	for range 2 {
		_, err := s.Find(context.Background(), "missing")
		assert.True(t, store.IsNotFound(err))
	}
	assert.Equal(t, int32(2), inner.finds.Load())
	assert.NoError(t, s.Close())
}
