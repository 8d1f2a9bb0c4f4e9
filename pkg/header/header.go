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

package header

import (
	"time"
)

// APIVersion is the schema version of every report kind.
const APIVersion = "recordpipe.nvidia.com/v1alpha1"

// Kind names a report document.
type Kind string

const (
	KindBatchReport      Kind = "BatchReport"
	KindValidationReport Kind = "ValidationReport"
)

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindBatchReport, KindValidationReport:
		return true
	default:
		return false
	}
}

// Metadata describes when and by what a report was produced.
type Metadata struct {
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Version   string            `json:"version,omitempty" yaml:"version,omitempty"`
	Source    string            `json:"source,omitempty" yaml:"source,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Header prefixes report documents in the Kubernetes style so files written
// by the CLI identify themselves.
type Header struct {
	Kind       Kind     `json:"kind" yaml:"kind"`
	APIVersion string   `json:"apiVersion" yaml:"apiVersion"`
	Metadata   Metadata `json:"metadata" yaml:"metadata"`
}

// Option configures a Header.
type Option func(*Header)

// WithSource records where the report's input came from.
func WithSource(source string) Option {
	return func(h *Header) {
		h.Metadata.Source = source
	}
}

// WithLabel adds one metadata label.
func WithLabel(key, value string) Option {
	return func(h *Header) {
		if h.Metadata.Labels == nil {
			h.Metadata.Labels = make(map[string]string)
		}
		h.Metadata.Labels[key] = value
	}
}

// WithTimestamp overrides the creation time, mostly for tests.
func WithTimestamp(ts time.Time) Option {
	return func(h *Header) {
		h.Metadata.Timestamp = ts.UTC()
	}
}

// New creates a header for kind stamped with the current UTC time.
func New(kind Kind, version string, opts ...Option) Header {
	h := Header{
		Kind:       kind,
		APIVersion: APIVersion,
		Metadata: Metadata{
			Timestamp: time.Now().UTC().Truncate(time.Second),
			Version:   version,
		},
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}
