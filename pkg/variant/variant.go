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

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	// KeyTag is the wire key holding the variant tag.
	KeyTag = "tag"
	// KeyPoints is the wire key holding the ordered point list.
	KeyPoints = "points"
)

// Tag identifies which member of the variant family a value belongs to.
type Tag string

// String returns the tag as a string.
func (t Tag) String() string {
	return string(t)
}

// Point is a 2D coordinate used by point-based variants such as polygons.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Variant is an immutable tagged value. The tag selects the computation that
// applies; the payload is a set of named numeric fields plus an optional
// ordered list of points.
type Variant struct {
	tag    Tag
	fields map[string]float64
	points []Point
}

// New constructs a Variant. fields and points are copied, so later changes
// to the arguments do not affect the returned value.
func New(tag Tag, fields map[string]float64, points ...Point) Variant {
	v := Variant{
		tag:    tag,
		fields: make(map[string]float64, len(fields)),
	}
	maps.Copy(v.fields, fields)
	if len(points) > 0 {
		v.points = slices.Clone(points)
	}
	return v
}

// Tag returns the variant discriminator.
func (v Variant) Tag() Tag {
	return v.tag
}

// Field returns a named numeric field.
func (v Variant) Field(name string) (float64, bool) {
	f, ok := v.fields[name]
	return f, ok
}

// Fields returns a copy of the numeric payload.
func (v Variant) Fields() map[string]float64 {
	return maps.Clone(v.fields)
}

// FieldNames returns the payload field names in sorted order.
func (v Variant) FieldNames() []string {
	names := make([]string, 0, len(v.fields))
	for k := range v.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Points returns a copy of the point list.
func (v Variant) Points() []Point {
	return slices.Clone(v.points)
}

// IsZero reports whether the variant has no tag.
func (v Variant) IsZero() bool {
	return v.tag == ""
}

// Equal reports whether two variants have the same tag and payload.
func (v Variant) Equal(o Variant) bool {
	return v.tag == o.tag &&
		maps.Equal(v.fields, o.fields) &&
		slices.Equal(v.points, o.points)
}

// String returns a compact representation for logs.
func (v Variant) String() string {
	return fmt.Sprintf("%s%v", v.tag, v.fields)
}

func (v Variant) wire() map[string]any {
	out := make(map[string]any, len(v.fields)+2)
	for k, f := range v.fields {
		out[k] = f
	}
	out[KeyTag] = string(v.tag)
	if len(v.points) > 0 {
		out[KeyPoints] = v.points
	}
	return out
}

// MarshalJSON writes the flat wire form: {"tag":"rectangle","length":3,"height":4}.
func (v Variant) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wire())
}

// UnmarshalJSON reads the flat wire form.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var (
		tag    Tag
		points []Point
	)
	fields := make(map[string]float64, len(raw))
	for k, msg := range raw {
		switch k {
		case KeyTag:
			if err := json.Unmarshal(msg, &tag); err != nil {
				return fmt.Errorf("invalid variant tag: %w", err)
			}
		case KeyPoints:
			if err := json.Unmarshal(msg, &points); err != nil {
				return fmt.Errorf("invalid variant points: %w", err)
			}
		default:
			var f float64
			if err := json.Unmarshal(msg, &f); err != nil {
				return fmt.Errorf("variant field %q must be numeric: %w", k, err)
			}
			fields[k] = f
		}
	}

	if tag == "" {
		return fmt.Errorf("variant is missing %q", KeyTag)
	}
	*v = New(tag, fields, points...)
	return nil
}

// MarshalYAML writes the flat wire form.
func (v Variant) MarshalYAML() (any, error) {
	return v.wire(), nil
}

// UnmarshalYAML reads the flat wire form.
func (v *Variant) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var (
		tag    Tag
		points []Point
	)
	fields := make(map[string]float64, len(raw))
	for k, n := range raw {
		switch k {
		case KeyTag:
			if err := n.Decode(&tag); err != nil {
				return fmt.Errorf("invalid variant tag: %w", err)
			}
		case KeyPoints:
			if err := n.Decode(&points); err != nil {
				return fmt.Errorf("invalid variant points: %w", err)
			}
		default:
			var f float64
			if err := n.Decode(&f); err != nil {
				return fmt.Errorf("variant field %q must be numeric: %w", k, err)
			}
			fields[k] = f
		}
	}

	if tag == "" {
		return fmt.Errorf("variant is missing %q", KeyTag)
	}
	*v = New(tag, fields, points...)
	return nil
}
