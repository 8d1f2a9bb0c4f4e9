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

package shapes

import (
	"fmt"
	"math"
	"sort"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/registry"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

// Built-in variant tags.
const (
	TagRectangle variant.Tag = "rectangle"
	TagSquare    variant.Tag = "square"
	TagCircle    variant.Tag = "circle"
	TagTriangle  variant.Tag = "triangle"
	TagPolygon   variant.Tag = "polygon"
	TagExpense   variant.Tag = "expense"
)

// Result units.
const (
	UnitArea     = "area"
	UnitCurrency = "currency"
)

// Computations returns the built-in computations keyed by tag.
// The map is freshly allocated on every call.
func Computations() map[variant.Tag]registry.Computation {
	return map[variant.Tag]registry.Computation{
		TagRectangle: Rectangle,
		TagSquare:    Square,
		TagCircle:    Circle,
		TagTriangle:  Triangle,
		TagPolygon:   Polygon,
		TagExpense:   Expense,
	}
}

// RegisterAll registers every built-in computation with reg.
// The first registration error is returned and later computations are skipped.
func RegisterAll(reg *registry.Registry) error {
	all := Computations()
	for _, tag := range []variant.Tag{TagRectangle, TagSquare, TagCircle, TagTriangle, TagPolygon, TagExpense} {
		if err := reg.Register(tag, all[tag]); err != nil {
			return err
		}
	}
	return nil
}

// Rectangle computes length * height.
func Rectangle(v variant.Variant) (variant.Result, error) {
	l, err := nonNegative(v, "length")
	if err != nil {
		return variant.Result{}, err
	}
	h, err := nonNegative(v, "height")
	if err != nil {
		return variant.Result{}, err
	}
	return variant.Result{
		Value:   l * h,
		Unit:    UnitArea,
		Details: map[string]float64{"perimeter": 2 * (l + h)},
	}, nil
}

// Square computes side².
func Square(v variant.Variant) (variant.Result, error) {
	s, err := nonNegative(v, "side")
	if err != nil {
		return variant.Result{}, err
	}
	return variant.Result{
		Value:   s * s,
		Unit:    UnitArea,
		Details: map[string]float64{"perimeter": 4 * s},
	}, nil
}

// Circle computes πr².
func Circle(v variant.Variant) (variant.Result, error) {
	r, err := nonNegative(v, "radius")
	if err != nil {
		return variant.Result{}, err
	}
	return variant.Result{
		Value:   math.Pi * r * r,
		Unit:    UnitArea,
		Details: map[string]float64{"circumference": 2 * math.Pi * r},
	}, nil
}

// Triangle computes the area either from base and height, or from the three
// side lengths a, b and c using Heron's formula.
func Triangle(v variant.Variant) (variant.Result, error) {
	if _, ok := v.Field("base"); ok {
		b, err := nonNegative(v, "base")
		if err != nil {
			return variant.Result{}, err
		}
		h, err := nonNegative(v, "height")
		if err != nil {
			return variant.Result{}, err
		}
		return variant.Result{Value: b * h / 2, Unit: UnitArea}, nil
	}

	sides := make([]float64, 0, 3)
	for _, name := range []string{"a", "b", "c"} {
		s, err := nonNegative(v, name)
		if err != nil {
			return variant.Result{}, err
		}
		sides = append(sides, s)
	}
	a, b, c := sides[0], sides[1], sides[2]
	if a+b < c || a+c < b || b+c < a {
		return variant.Result{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"triangle sides violate the triangle inequality",
			map[string]any{"a": a, "b": b, "c": c})
	}

	return variant.Result{
		Value:   heron(a, b, c),
		Unit:    UnitArea,
		Details: map[string]float64{"perimeter": a + b + c},
	}, nil
}

// heron is the rearranged form of Heron's formula that stays accurate for
// needle-like triangles. Sides are sorted so that x >= y >= z. Rounding can
// still push a degenerate triangle's product slightly below zero, so it is
// clamped.
func heron(a, b, c float64) float64 {
	s := []float64{a, b, c}
	sort.Sort(sort.Reverse(sort.Float64Slice(s)))
	x, y, z := s[0], s[1], s[2]

	p := (x + (y + z)) * (z - (x - y)) * (z + (x - y)) * (x + (y - z))
	return math.Sqrt(math.Max(0, p)) / 4
}

// Polygon computes the area enclosed by an ordered list of at least three
// points using the shoelace formula. An optional scale field multiplies every
// coordinate.
func Polygon(v variant.Variant) (variant.Result, error) {
	pts := v.Points()
	if len(pts) < 3 {
		return variant.Result{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("polygon requires at least 3 points, got %d", len(pts)),
			map[string]any{"field": variant.KeyPoints})
	}

	for i, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			return variant.Result{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("point %d must have finite coordinates", i),
				map[string]any{"tag": string(v.Tag()), "field": variant.KeyPoints, "index": i})
		}
	}

	scale, err := optional(v, "scale", 1)
	if err != nil {
		return variant.Result{}, err
	}

	var twice, perimeter float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		twice += p.X*q.Y - q.X*p.Y
		perimeter += math.Hypot(q.X-p.X, q.Y-p.Y)
	}

	return variant.Result{
		Value:   math.Abs(twice) / 2 * scale * scale,
		Unit:    UnitArea,
		Details: map[string]float64{"perimeter": perimeter * math.Abs(scale)},
	}, nil
}

// Expense computes amount * (1 + tax_rate). tax_rate is optional.
func Expense(v variant.Variant) (variant.Result, error) {
	amount, err := required(v, "amount")
	if err != nil {
		return variant.Result{}, err
	}
	rate, err := optional(v, "tax_rate", 0)
	if err != nil {
		return variant.Result{}, err
	}
	tax := amount * rate
	return variant.Result{
		Value:   amount + tax,
		Unit:    UnitCurrency,
		Details: map[string]float64{"subtotal": amount, "tax": tax},
	}, nil
}

func required(v variant.Variant, name string) (float64, error) {
	f, ok := v.Field(name)
	if !ok {
		return 0, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s requires field %q", v.Tag(), name),
			map[string]any{"tag": string(v.Tag()), "field": name})
	}
	if !finite(f) {
		return 0, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("field %q must be finite", name),
			map[string]any{"tag": string(v.Tag()), "field": name})
	}
	return f, nil
}

// optional returns def when the field is absent. A present field must be finite.
func optional(v variant.Variant, name string, def float64) (float64, error) {
	if _, ok := v.Field(name); !ok {
		return def, nil
	}
	return required(v, name)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonNegative(v variant.Variant, name string) (float64, error) {
	f, err := required(v, name)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("field %q cannot be negative", name),
			map[string]any{"tag": string(v.Tag()), "field": name, "value": f})
	}
	return f, nil
}
