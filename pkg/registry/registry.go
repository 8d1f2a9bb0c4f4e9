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

package registry

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

// Computation derives a Result from a Variant. Implementations must be pure:
// equal variants yield equal results and nothing outside the result changes.
type Computation func(v variant.Variant) (variant.Result, error)

// Registry maps variant tags to computations.
//
// Registration happens during initialization. Freeze ends that phase; from
// then on the table is never written again, so Compute reads it without
// taking a lock.
type Registry struct {
	mu           sync.RWMutex
	computations map[variant.Tag]Computation
	frozen       atomic.Bool
}

// New creates an empty, unfrozen Registry.
func New() *Registry {
	return &Registry{
		computations: make(map[variant.Tag]Computation),
	}
}

// Register adds a computation for tag.
// Returns DUPLICATE_TAG if the tag is already registered and REGISTRY_FROZEN
// once Freeze has been called. An existing registration is never replaced.
func (r *Registry) Register(tag variant.Tag, fn Computation) error {
	if err := validateEntry(tag, fn); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return frozenError(tag)
	}
	if _, exists := r.computations[tag]; exists {
		return errors.NewWithContext(errors.ErrCodeDuplicateTag,
			fmt.Sprintf("computation for tag %q already registered", tag),
			map[string]any{"tag": string(tag)})
	}

	r.computations[tag] = fn
	return nil
}

// MustRegister is a convenience function that panics on registration error.
// Use it where a failed registration is a wiring bug.
func (r *Registry) MustRegister(tag variant.Tag, fn Computation) {
	if err := r.Register(tag, fn); err != nil {
		panic(err)
	}
}

// Replace swaps the computation of an already registered tag.
// It is the only way to change an existing registration and is rejected
// after Freeze.
func (r *Registry) Replace(tag variant.Tag, fn Computation) error {
	if err := validateEntry(tag, fn); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return frozenError(tag)
	}
	if _, exists := r.computations[tag]; !exists {
		return unsupportedError(tag)
	}

	r.computations[tag] = fn
	return nil
}

// Freeze ends the registration phase. It cannot be undone; calling it again
// has no effect.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Compute applies the computation registered for v's tag.
// Returns UNSUPPORTED_VARIANT when no computation is registered and
// INVALID_REQUEST when the computation yields a NaN or infinite value. The
// returned result always carries v's tag.
func (r *Registry) Compute(v variant.Variant) (variant.Result, error) {
	fn, ok := r.lookup(v.Tag())
	if !ok {
		computationsTotal.WithLabelValues(unregisteredLabel, statusUnsupported).Inc()
		return variant.Result{}, unsupportedError(v.Tag())
	}

	res, err := fn(v)
	if err != nil {
		computationsTotal.WithLabelValues(string(v.Tag()), statusError).Inc()
		return variant.Result{}, err
	}
	if err := checkFinite(v.Tag(), res); err != nil {
		computationsTotal.WithLabelValues(string(v.Tag()), statusError).Inc()
		return variant.Result{}, err
	}

	computationsTotal.WithLabelValues(string(v.Tag()), statusOK).Inc()
	res.Tag = v.Tag()
	return res, nil
}

// Has reports whether a computation is registered for tag.
func (r *Registry) Has(tag variant.Tag) bool {
	_, ok := r.lookup(tag)
	return ok
}

// Tags returns all registered tags in sorted order.
func (r *Registry) Tags() []variant.Tag {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	tags := make([]variant.Tag, 0, len(r.computations))
	for t := range r.computations {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Count returns the number of registered computations.
func (r *Registry) Count() int {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	return len(r.computations)
}

// IsEmpty returns true if no computations are registered.
func (r *Registry) IsEmpty() bool {
	return r.Count() == 0
}

func (r *Registry) lookup(tag variant.Tag) (Computation, bool) {
	if r.frozen.Load() {
		fn, ok := r.computations[tag]
		return fn, ok
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.computations[tag]
	return fn, ok
}

func validateEntry(tag variant.Tag, fn Computation) error {
	if tag == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "tag cannot be empty")
	}
	if fn == nil {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "computation cannot be nil",
			map[string]any{"tag": string(tag)})
	}
	return nil
}

// checkFinite rejects results that cannot be compared or encoded.
func checkFinite(tag variant.Tag, res variant.Result) error {
	if !finite(res.Value) {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("computation for tag %q produced non-finite value %v", tag, res.Value),
			map[string]any{"tag": string(tag)})
	}
	for k, d := range res.Details {
		if !finite(d) {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("computation for tag %q produced non-finite detail %q", tag, k),
				map[string]any{"tag": string(tag), "detail": k})
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func frozenError(tag variant.Tag) error {
	return errors.NewWithContext(errors.ErrCodeRegistryFrozen,
		fmt.Sprintf("registry is frozen, cannot register tag %q", tag),
		map[string]any{"tag": string(tag)})
}

func unsupportedError(tag variant.Tag) error {
	return errors.NewWithContext(errors.ErrCodeUnsupportedVariant,
		fmt.Sprintf("no computation registered for tag %q", tag),
		map[string]any{"tag": string(tag)})
}
