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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

func area(v variant.Variant) (variant.Result, error) {
	l, _ := v.Field("length")
	h, _ := v.Field("height")
	return variant.Result{Value: l * h, Unit: "area"}, nil
}

func circleArea(v variant.Variant) (variant.Result, error) {
	r, _ := v.Field("radius")
	return variant.Result{Value: math.Pi * r * r, Unit: "area"}, nil
}

func TestRegistry_New(t *testing.T) {
	reg := New()
	require.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())
	assert.True(t, reg.IsEmpty())
	assert.False(t, reg.Frozen())
}

// TestRegistry_ComputeRectangle registers length*height for rectangles and
// computes a 3x4 rectangle.
func TestRegistry_ComputeRectangle(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("rectangle", area))
	reg.Freeze()

	res, err := reg.Compute(variant.New("rectangle", map[string]float64{"length": 3, "height": 4}))
	require.NoError(t, err)
	assert.Equal(t, 12.0, res.Value)
	assert.Equal(t, variant.Tag("rectangle"), res.Tag)
}

func TestRegistry_ComputeUnsupported(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("rectangle", area))
	reg.Freeze()

	_, err := reg.Compute(variant.New("hexagon", map[string]float64{"side": 1}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedVariant))

	// existing mappings are untouched
	res, err := reg.Compute(variant.New("rectangle", map[string]float64{"length": 2, "height": 2}))
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Value)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_DuplicateTag(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("circle", circleArea))

	err := reg.Register("circle", func(variant.Variant) (variant.Result, error) {
		return variant.Result{Value: -1}, nil
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDuplicateTag, errors.CodeOf(err))

	// first registration remains active
	res, err := reg.Compute(variant.New("circle", map[string]float64{"radius": 1}))
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, res.Value, 1e-9)
}

func TestRegistry_RegisterAfterFreeze(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("rectangle", area))
	reg.Freeze()
	reg.Freeze() // idempotent

	err := reg.Register("circle", circleArea)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRegistryFrozen, errors.CodeOf(err))
	assert.False(t, reg.Has("circle"))

	err = reg.Replace("rectangle", circleArea)
	assert.Equal(t, errors.ErrCodeRegistryFrozen, errors.CodeOf(err))
}

func TestRegistry_InvalidEntries(t *testing.T) {
	reg := New()

	err := reg.Register("", area)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))

	err = reg.Register("rectangle", nil)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))

	assert.True(t, reg.IsEmpty())
}

func TestRegistry_Replace(t *testing.T) {
	reg := New()

	err := reg.Replace("circle", circleArea)
	assert.Equal(t, errors.ErrCodeUnsupportedVariant, errors.CodeOf(err))

	require.NoError(t, reg.Register("circle", circleArea))
	require.NoError(t, reg.Replace("circle", func(variant.Variant) (variant.Result, error) {
		return variant.Result{Value: 42}, nil
	}))

	res, err := reg.Compute(variant.New("circle", nil))
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.Value)
}

func TestRegistry_MustRegister(t *testing.T) {
	reg := New()
	assert.NotPanics(t, func() { reg.MustRegister("rectangle", area) })
	assert.Panics(t, func() { reg.MustRegister("rectangle", area) })
}

func TestRegistry_ComputationError(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("broken", func(variant.Variant) (variant.Result, error) {
		return variant.Result{}, errors.New(errors.ErrCodeInvalidRequest, "missing field")
	}))

	_, err := reg.Compute(variant.New("broken", nil))
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestRegistry_NonFiniteResult(t *testing.T) {
	reg := New()
	reg.MustRegister("nan", func(variant.Variant) (variant.Result, error) {
		return variant.Result{Value: math.NaN()}, nil
	})
	reg.MustRegister("inf", func(variant.Variant) (variant.Result, error) {
		return variant.Result{Value: math.Inf(1)}, nil
	})
	reg.MustRegister("detail", func(variant.Variant) (variant.Result, error) {
		return variant.Result{Value: 1, Details: map[string]float64{"perimeter": math.Inf(-1)}}, nil
	})
	reg.Freeze()

	for _, tag := range []variant.Tag{"nan", "inf", "detail"} {
		t.Run(string(tag), func(t *testing.T) {
			res, err := reg.Compute(variant.New(tag, nil))
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
			assert.True(t, res.Equal(variant.Result{}))
		})
	}
}

func TestRegistry_ResultTagIsStamped(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("rectangle", func(v variant.Variant) (variant.Result, error) {
		return variant.Result{Tag: "something-else", Value: 1}, nil
	}))

	res, err := reg.Compute(variant.New("rectangle", nil))
	require.NoError(t, err)
	assert.Equal(t, variant.Tag("rectangle"), res.Tag)
}

func TestRegistry_Tags(t *testing.T) {
	reg := New()
	reg.MustRegister("square", area)
	reg.MustRegister("circle", circleArea)
	reg.MustRegister("rectangle", area)

	assert.Equal(t, []variant.Tag{"circle", "rectangle", "square"}, reg.Tags())
	reg.Freeze()
	assert.Equal(t, []variant.Tag{"circle", "rectangle", "square"}, reg.Tags())
	assert.Equal(t, 3, reg.Count())
}

// TestRegistry_ThreadSafety registers concurrently during initialization and
// then computes concurrently after freeze.
func TestRegistry_ThreadSafety(t *testing.T) {
	reg := New()
	iterations := 100
	var wg sync.WaitGroup

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			reg.MustRegister(variant.Tag(fmt.Sprintf("shape-%d", idx)), area)
		}(i)
	}
	wg.Wait()
	require.Equal(t, iterations, reg.Count())

	reg.Freeze()

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v := variant.New(variant.Tag(fmt.Sprintf("shape-%d", idx)), map[string]float64{"length": 2, "height": float64(idx)})
			res, err := reg.Compute(v)
			if err != nil {
				t.Errorf("compute shape-%d: %v", idx, err)
				return
			}
			if res.Value != float64(2*idx) {
				t.Errorf("shape-%d = %v, want %v", idx, res.Value, 2*idx)
			}
		}(i)
	}
	wg.Wait()
}

// TestRegistry_DeterministicProperty checks that computing an equal variant
// twice yields equal results, and that unknown tags never disturb the table.
func TestRegistry_DeterministicProperty(t *testing.T) {
	reg := New()
	reg.MustRegister("rectangle", area)
	reg.MustRegister("circle", circleArea)
	reg.Freeze()

	rapid.Check(t, func(rt *rapid.T) {
		tag := rapid.SampledFrom([]variant.Tag{"rectangle", "circle", "hexagon", "blob"}).Draw(rt, "tag")
		fields := map[string]float64{
			"length": rapid.Float64Range(0, 1e6).Draw(rt, "length"),
			"height": rapid.Float64Range(0, 1e6).Draw(rt, "height"),
			"radius": rapid.Float64Range(0, 1e3).Draw(rt, "radius"),
		}

		first, err1 := reg.Compute(variant.New(tag, fields))
		second, err2 := reg.Compute(variant.New(tag, fields))

		if reg.Has(tag) {
			if err1 != nil || err2 != nil {
				rt.Fatalf("unexpected errors: %v, %v", err1, err2)
			}
			if !first.Equal(second) {
				rt.Fatalf("non-deterministic result: %v != %v", first, second)
			}
		} else if !errors.HasCode(err1, errors.ErrCodeUnsupportedVariant) {
			rt.Fatalf("expected UNSUPPORTED_VARIANT, got %v", err1)
		}

		if reg.Count() != 2 {
			rt.Fatalf("registry changed size: %d", reg.Count())
		}
	})
}
