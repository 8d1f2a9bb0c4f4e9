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

package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/NVIDIA/recordpipe/pkg/variant"
)

// Record is the business entity submitted through the pipeline.
// ID is empty until a store persists the record.
type Record struct {
	// ID is assigned by the store on first save.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Key is an optional caller-supplied idempotency key.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Quantity int    `json:"quantity" yaml:"quantity"`

	Variant variant.Variant `json:"variant" yaml:"variant"`

	// Result is attached by the pipeline's compute stage.
	Result *variant.Result `json:"result,omitempty" yaml:"result,omitempty"`

	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// WithResult returns a copy of r carrying res.
func (r Record) WithResult(res variant.Result) Record {
	out := r.Clone()
	c := res.Clone()
	out.Result = &c
	return out
}

// WithID returns a copy of r carrying id.
func (r Record) WithID(id string) Record {
	out := r.Clone()
	out.ID = id
	return out
}

// Clone returns a deep copy of r. Variant is immutable and shared.
func (r Record) Clone() Record {
	if r.Result != nil {
		c := r.Result.Clone()
		r.Result = &c
	}
	r.Labels = maps.Clone(r.Labels)
	return r
}

// Equal reports whether two records are identical in every field.
func (r Record) Equal(o Record) bool {
	return r.ID == o.ID && r.EqualIgnoringID(o)
}

// EqualIgnoringID reports whether two records match in all fields except ID.
func (r Record) EqualIgnoringID(o Record) bool {
	if r.Key != o.Key || r.Name != o.Name || r.Category != o.Category || r.Quantity != o.Quantity {
		return false
	}
	if !r.Variant.Equal(o.Variant) || !maps.Equal(r.Labels, o.Labels) {
		return false
	}
	switch {
	case r.Result == nil && o.Result == nil:
		return true
	case r.Result == nil || o.Result == nil:
		return false
	default:
		return r.Result.Equal(*o.Result)
	}
}

// IdempotencyKey identifies the logical record across save attempts.
// It is Key when set. Otherwise it is derived from the record's natural
// identity: a sha256 over its JSON form with ID, Key and Result cleared.
func (r Record) IdempotencyKey() string {
	if r.Key != "" {
		return r.Key
	}

	natural := r.Clone()
	natural.ID = ""
	natural.Result = nil

	// encoding/json sorts map keys, so the encoding is canonical.
	b, err := json.Marshal(natural)
	if err != nil {
		// only reachable for non-finite floats, which json cannot encode
		b = fmt.Appendf(nil, "%s|%s|%s|%d|%v|%v", natural.Name, natural.Category,
			natural.Variant.Tag(), natural.Quantity, natural.Variant.Fields(), natural.Labels)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Persisted is a Record plus its storage-assigned identity.
// Only stores construct it.
type Persisted struct {
	Record Record `json:"record" yaml:"record"`

	// StoredAt is when the entry was first written.
	StoredAt time.Time `json:"storedAt" yaml:"storedAt"`

	// Duplicate is true when the save resolved to an entry that already
	// existed for the same idempotency key.
	Duplicate bool `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
}

// ID returns the storage-assigned identity.
func (p Persisted) ID() string {
	return p.Record.ID
}
