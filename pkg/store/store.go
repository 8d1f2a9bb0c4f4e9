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
	"context"
	"fmt"
	"iter"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
)

// Store is the persistence port.
//
// Save must de-duplicate by record.IdempotencyKey: saving the same logical
// record twice yields one entry, and the second call returns it with
// Persisted.Duplicate set. Failures are PERSISTENCE errors whose Retryable
// flag tells the caller whether the same call may be repeated.
//
// FindAll returns a lazy, finite sequence. Each call starts a fresh
// traversal, so the returned value may be ranged over more than once.
type Store interface {
	Save(ctx context.Context, r record.Record) (record.Persisted, error)
	Find(ctx context.Context, id string) (record.Record, error)
	FindAll(ctx context.Context) iter.Seq2[record.Record, error]
}

// Retryable wraps cause as a PERSISTENCE error the caller may retry.
func Retryable(op string, cause error) error {
	return errors.NewRetryable(errors.ErrCodePersistence, fmt.Sprintf("%s failed", op), cause)
}

// Fatal wraps cause as a PERSISTENCE error that must not be retried.
func Fatal(op string, cause error) error {
	return errors.Wrap(errors.ErrCodePersistence, fmt.Sprintf("%s failed", op), cause)
}

// NotFound reports a missing record.
func NotFound(id string) error {
	return errors.NewWithContext(errors.ErrCodeNotFound,
		fmt.Sprintf("record %q not found", id), map[string]any{"id": id})
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return errors.HasCode(err, errors.ErrCodeNotFound)
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[record.Record, error]) ([]record.Record, error) {
	var out []record.Record
	for r, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Fail returns a sequence that yields err once.
func Fail(err error) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		yield(record.Record{}, err)
	}
}
