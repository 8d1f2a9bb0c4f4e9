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

package variant

import "maps"

// Result is the output of applying a computation to a Variant.
type Result struct {
	// Tag is the tag of the variant the result was computed from.
	Tag Tag `json:"tag" yaml:"tag"`

	// Value is the primary computed quantity (area, total, ...).
	Value float64 `json:"value" yaml:"value"`

	// Unit names what Value measures.
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Details holds secondary quantities such as perimeter or tax.
	Details map[string]float64 `json:"details,omitempty" yaml:"details,omitempty"`
}

// Equal reports whether two results are identical.
func (r Result) Equal(o Result) bool {
	return r.Tag == o.Tag &&
		r.Value == o.Value &&
		r.Unit == o.Unit &&
		maps.Equal(r.Details, o.Details)
}

// Clone returns a deep copy of the result.
func (r Result) Clone() Result {
	r.Details = maps.Clone(r.Details)
	return r
}
