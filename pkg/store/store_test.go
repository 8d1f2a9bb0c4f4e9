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

package store

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
)

func TestErrorHelpers(t *testing.T) {
	cause := stderrors.New("disk full")

	r := Retryable("save", cause)
	assert.True(t, errors.IsRetryable(r))
	assert.Equal(t, errors.ErrCodePersistence, errors.CodeOf(r))
	assert.ErrorIs(t, r, cause)

	f := Fatal("save", cause)
	assert.False(t, errors.IsRetryable(f))
	assert.Equal(t, errors.ErrCodePersistence, errors.CodeOf(f))

	nf := NotFound("abc")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsNotFound(f))
}

func TestCollect(t *testing.T) {
	seq := func(yield func(record.Record, error) bool) {
		for _, name := range []string{"a", "b"} {
			if !yield(record.Record{Name: name}, nil) {
				return
			}
		}
	}
	got, err := Collect(seq)
	assert.NoError(t, err)
	assert.Len(t, got, 2)

	boom := stderrors.New("boom")
	got, err = Collect(Fail(boom))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got)
}
