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

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "record not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "record not found" {
		t.Errorf("expected message 'record not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
	if err.Retryable {
		t.Error("expected non-retryable error")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("database is locked")
	err := WrapWithContext(ErrCodePersistence, "insert failed", cause, map[string]any{
		"key": "k-1",
	})

	if err.Code != ErrCodePersistence {
		t.Errorf("expected code %s, got %s", ErrCodePersistence, err.Code)
	}
	if err.Context["key"] != "k-1" {
		t.Errorf("expected key context to be k-1")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeUnsupportedVariant, "no computation for hexagon"),
			expected: "[UNSUPPORTED_VARIANT] no computation for hexagon",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "structured", err: New(ErrCodeDuplicateTag, "dup"), want: ErrCodeDuplicateTag},
		{name: "fmt wrapped", err: fmt.Errorf("outer: %w", New(ErrCodeRegistryFrozen, "frozen")), want: ErrCodeRegistryFrozen},
		{name: "plain error", err: errors.New("plain"), want: ErrCodeInternal},
		{name: "nil", err: nil, want: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := New(ErrCodeNotFound, "missing")
	outer := Wrap(ErrCodePersistence, "lookup failed", inner)

	if !HasCode(outer, ErrCodePersistence) {
		t.Error("expected outer code to match")
	}
	if !HasCode(outer, ErrCodeNotFound) {
		t.Error("expected nested code to match")
	}
	if HasCode(outer, ErrCodeDuplicateTag) {
		t.Error("unexpected code match")
	}
	if HasCode(nil, ErrCodeNotFound) {
		t.Error("nil error should not match any code")
	}
}

func TestIsRetryable(t *testing.T) {
	cause := errors.New("busy")

	if !IsRetryable(NewRetryable(ErrCodePersistence, "busy", cause)) {
		t.Error("expected retryable error")
	}
	if !IsRetryable(fmt.Errorf("save: %w", NewRetryable(ErrCodePersistence, "busy", cause))) {
		t.Error("expected wrapped retryable error")
	}
	if IsRetryable(Wrap(ErrCodePersistence, "disk full", cause)) {
		t.Error("expected fatal error")
	}
	if IsRetryable(cause) {
		t.Error("plain errors are never retryable")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeNotFound,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeInvalidRequest,
		ErrCodeUnavailable,
		ErrCodeDuplicateTag,
		ErrCodeRegistryFrozen,
		ErrCodeUnsupportedVariant,
		ErrCodePersistence,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
	}
}
