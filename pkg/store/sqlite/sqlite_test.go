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
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ncruces/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/store"
	"github.com/NVIDIA/recordpipe/pkg/store/storetest"
)

func openTemp(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "records.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestContract_Memory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), MemoryPath)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestContract_SmallPages(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t, WithPageSize(2)) })
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestReopen_KeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "records.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	p, err := s.Save(ctx, storetest.Sample("persisted"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Find(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Name)

	again, err := s.Save(ctx, storetest.Sample("persisted"))
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, p.ID(), again.ID())
	assert.True(t, p.StoredAt.Equal(again.StoredAt))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "busy", err: fmt.Errorf("exec: %w", sqlite3.BUSY), retryable: true},
		{name: "locked", err: sqlite3.LOCKED, retryable: true},
		{name: "deadline", err: context.DeadlineExceeded, retryable: true},
		{name: "constraint", err: sqlite3.CONSTRAINT, retryable: false},
		{name: "other", err: stderrors.New("disk I/O error"), retryable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("save", tt.err)
			assert.Equal(t, errors.ErrCodePersistence, errors.CodeOf(err))
			assert.Equal(t, tt.retryable, errors.IsRetryable(err))
		})
	}
}

func TestCanceledContext(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, storetest.Sample("x"))
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestPing(t *testing.T) {
	s := openTemp(t)
	assert.NoError(t, s.Ping(context.Background()))
}
