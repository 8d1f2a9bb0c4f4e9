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

package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/store"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

// Factory returns an empty store. Cleanup should be registered on t.
type Factory func(t *testing.T) store.Store

// Run exercises the persistence contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("SaveDoesNotMutateInput", func(t *testing.T) { testSaveDoesNotMutate(t, newStore(t)) })
	t.Run("DuplicateByContent", func(t *testing.T) { testDuplicateByContent(t, newStore(t)) })
	t.Run("DuplicateByKey", func(t *testing.T) { testDuplicateByKey(t, newStore(t)) })
	t.Run("DistinctRecords", func(t *testing.T) { testDistinct(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("FindAllEmpty", func(t *testing.T) { testFindAllEmpty(t, newStore(t)) })
	t.Run("FindAllRestartable", func(t *testing.T) { testFindAllRestartable(t, newStore(t)) })
	t.Run("ConcurrentDuplicateSaves", func(t *testing.T) { testConcurrentSaves(t, newStore(t)) })
	t.Run("RoundTripProperty", func(t *testing.T) { testRoundTripProperty(t, newStore(t)) })
}

// Sample returns a computed record distinguished by name.
func Sample(name string) record.Record {
	return record.Record{
		Name:     name,
		Category: "facilities",
		Quantity: 2,
		Variant:  variant.New("rectangle", map[string]float64{"length": 3, "height": 4}),
		Labels:   map[string]string{"site": "hq"},
	}.WithResult(variant.Result{
		Tag:     "rectangle",
		Value:   12,
		Unit:    "area",
		Details: map[string]float64{"perimeter": 14},
	})
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := Sample("carpet")

	p, err := s.Save(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, p.ID())
	assert.False(t, p.Duplicate)
	assert.False(t, p.StoredAt.IsZero())
	assert.True(t, r.EqualIgnoringID(p.Record), "persisted %+v", p.Record)

	got, err := s.Find(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, p.ID(), got.ID)
	assert.True(t, r.EqualIgnoringID(got), "found %+v", got)
}

func testSaveDoesNotMutate(t *testing.T, s store.Store) {
	r := Sample("carpet")
	before := r.Clone()

	_, err := s.Save(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, before.Equal(r))
	assert.Empty(t, r.ID)
}

func testDuplicateByContent(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := Sample("carpet")

	first, err := s.Save(ctx, r)
	require.NoError(t, err)
	second, err := s.Save(ctx, r)
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.True(t, second.Duplicate)

	all, err := store.Collect(s.FindAll(ctx))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testDuplicateByKey(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Sample("carpet")
	a.Key = "order-1"
	b := Sample("carpet-retry")
	b.Key = "order-1"

	first, err := s.Save(ctx, a)
	require.NoError(t, err)
	second, err := s.Save(ctx, b)
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.True(t, second.Duplicate)
	assert.Equal(t, "carpet", second.Record.Name, "first write wins")
}

func testDistinct(t *testing.T, s store.Store) {
	ctx := context.Background()

	a, err := s.Save(ctx, Sample("a"))
	require.NoError(t, err)
	b, err := s.Save(ctx, Sample("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
}

func testNotFound(t *testing.T, s store.Store) {
	_, err := s.Find(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err), "got %v", err)
}

func testFindAllEmpty(t *testing.T, s store.Store) {
	all, err := store.Collect(s.FindAll(context.Background()))
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testFindAllRestartable(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := map[string]bool{}
	for i := range 5 {
		p, err := s.Save(ctx, Sample(fmt.Sprintf("item-%d", i)))
		require.NoError(t, err)
		want[p.ID()] = true
	}

	seq := s.FindAll(ctx)
	for pass := range 2 {
		seen := map[string]bool{}
		for r, err := range seq {
			require.NoError(t, err)
			seen[r.ID] = true
		}
		assert.Equal(t, want, seen, "pass %d", pass)
	}

	// stopping early is allowed
	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func testConcurrentSaves(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := Sample("contended")

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.Save(ctx, r)
			ids[i], errs[i] = p.ID(), err
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	all, err := store.Collect(s.FindAll(ctx))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testRoundTripProperty(t *testing.T, s store.Store) {
	ctx := context.Background()
	rapid.Check(t, func(rt *rapid.T) {
		r := record.Record{
			Name:     rapid.StringMatching(`[a-z][a-z0-9 ]{0,15}`).Draw(rt, "name"),
			Category: rapid.SampledFrom([]string{"", "travel", "equipment"}).Draw(rt, "category"),
			Quantity: rapid.IntRange(0, 1000).Draw(rt, "quantity"),
			Variant: variant.New("square", map[string]float64{
				"side": rapid.Float64Range(0, 1e4).Draw(rt, "side"),
			}),
		}

		p, err := s.Save(ctx, r)
		if err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := s.Find(ctx, p.ID())
		if err != nil {
			rt.Fatalf("find: %v", err)
		}
		if !r.EqualIgnoringID(got) {
			rt.Fatalf("round trip mismatch: saved %+v, found %+v", r, got)
		}
	})
}
