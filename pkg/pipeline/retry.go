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

package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
)

// RetryPolicy bounds how the orchestrator repeats a save that failed with a
// retryable error.
type RetryPolicy struct {
	// MaxAttempts is the total number of save attempts, including the first.
	MaxAttempts int `json:"maxAttempts" yaml:"maxAttempts"`

	// InitialInterval is the wait before the first retry.
	InitialInterval time.Duration `json:"initialInterval" yaml:"initialInterval"`

	// Multiplier scales the wait after every retry.
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`

	// Jitter adds up to Jitter*wait of random delay.
	Jitter float64 `json:"jitter" yaml:"jitter"`

	// AttemptTimeout bounds one save call. Zero means no per-attempt bound.
	AttemptTimeout time.Duration `json:"attemptTimeout" yaml:"attemptTimeout"`
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     defaults.PersistMaxAttempts,
		InitialInterval: defaults.PersistInitialInterval,
		Multiplier:      defaults.PersistBackoffFactor,
		Jitter:          defaults.PersistBackoffJitter,
		AttemptTimeout:  defaults.PersistAttemptTimeout,
	}
}

// NoRetry makes a single save attempt.
func NoRetry() RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxAttempts = 1
	return p
}

// Validate checks the policy is usable.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"retry maxAttempts must be at least 1", map[string]any{"maxAttempts": p.MaxAttempts})
	case p.InitialInterval < 0:
		return errors.New(errors.ErrCodeInvalidRequest, "retry initialInterval cannot be negative")
	case p.Multiplier < 1:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"retry multiplier must be at least 1", map[string]any{"multiplier": p.Multiplier})
	case p.Jitter < 0:
		return errors.New(errors.ErrCodeInvalidRequest, "retry jitter cannot be negative")
	case p.AttemptTimeout < 0:
		return errors.New(errors.ErrCodeInvalidRequest, "retry attemptTimeout cannot be negative")
	}
	return nil
}

// backoff converts the policy to a wait.Backoff. Cap is left unset because
// reaching it zeroes the remaining steps.
func (p RetryPolicy) backoff() wait.Backoff {
	return wait.Backoff{
		Duration: p.InitialInterval,
		Factor:   p.Multiplier,
		Jitter:   p.Jitter,
		Steps:    p.MaxAttempts,
	}
}

// persist saves r, repeating retryable failures under the retry policy.
// Every attempt sends the same record, so stores de-duplicate by its
// idempotency key. It returns the number of attempts made.
func (o *Orchestrator) persist(ctx context.Context, r record.Record) (record.Persisted, int, error) {
	var (
		persisted record.Persisted
		lastErr   error
		attempts  int
	)

	err := wait.ExponentialBackoffWithContext(ctx, o.retry.backoff(), func(ctx context.Context) (bool, error) {
		attempts++

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if o.retry.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, o.retry.AttemptTimeout)
		}
		defer cancel()

		persisted, lastErr = o.store.Save(attemptCtx, r)
		if lastErr == nil {
			return true, nil
		}
		if ctx.Err() != nil {
			return false, lastErr
		}

		retryable := errors.IsRetryable(lastErr) ||
			stderrors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		if !retryable || attempts >= o.retry.MaxAttempts {
			return false, lastErr
		}

		persistRetries.Inc()
		slog.Warn("save failed, retrying",
			"attempt", attempts,
			"max_attempts", o.retry.MaxAttempts,
			"key", r.IdempotencyKey(),
			"error", lastErr)
		return false, nil
	})

	switch {
	case err == nil:
		return persisted, attempts, nil
	case ctx.Err() != nil:
		return record.Persisted{}, attempts, abandoned(StagePersist, ctx.Err())
	case wait.Interrupted(err) && lastErr != nil:
		return record.Persisted{}, attempts, lastErr
	default:
		return record.Persisted{}, attempts, err
	}
}

// abandoned wraps a context error for a stage the caller gave up on.
// The record may be resubmitted, so the error is retryable.
func abandoned(stage Stage, cause error) error {
	return errors.NewRetryable(errors.ErrCodeTimeout,
		fmt.Sprintf("processing abandoned before %s completed", stage), cause)
}
