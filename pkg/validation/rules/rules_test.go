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

package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/validation"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

func carpet() record.Record {
	return record.Record{
		Name:     "carpet",
		Category: "facilities",
		Quantity: 2,
		Variant:  variant.New("rectangle", map[string]float64{"length": 3, "height": 4}),
	}.WithResult(variant.Result{Tag: "rectangle", Value: 12, Unit: "area"})
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{name: "not a jsonpath", rule: Rule{Path: "quantity", Constraint: ">= 0"}},
		{name: "bad path", rule: Rule{Path: "$[", Constraint: ">= 0"}},
		{name: "empty constraint", rule: Rule{Path: "$.quantity"}},
		{name: "ordering on text", rule: Rule{Path: "$.quantity", Constraint: "> lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Rule{tt.rule})
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
		})
	}
}

func TestValidate(t *testing.T) {
	v, err := New([]Rule{
		{Name: "quantity-non-negative", Path: "$.quantity", Constraint: ">= 0"},
		{Path: "$.variant.length", Constraint: "<= 100"},
		{Path: "$.result.value", Constraint: "< 1000", Message: "area too large"},
		{Path: "$.category", Constraint: "!= internal"},
		{Path: "$.labels.site", Constraint: "hq", Optional: true},
	})
	require.NoError(t, err)
	assert.Len(t, v.Rules(), 5)
	assert.Equal(t, "variant.length", v.Rules()[1].Name)

	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		out := v.Validate(ctx, carpet())
		assert.True(t, out.Accepted(), out.Error())
		assert.Empty(t, out.Violations)
	})

	t.Run("negative quantity", func(t *testing.T) {
		r := carpet()
		r.Quantity = -1
		out := v.Validate(ctx, r)
		require.False(t, out.Accepted())
		require.Len(t, out.Violations, 1)
		assert.Equal(t, validation.Violation{
			Rule:    "quantity-non-negative",
			Field:   "quantity",
			Message: "quantity must be >= 0",
		}, out.Violations[0])
	})

	t.Run("violations keep rule order", func(t *testing.T) {
		r := carpet().WithResult(variant.Result{Value: 5000})
		r.Quantity = -1
		r.Category = "internal"
		out := v.Validate(ctx, r)
		require.Len(t, out.Violations, 3)
		assert.Equal(t, "quantity", out.Violations[0].Field)
		assert.Equal(t, "area too large", out.Violations[1].Message)
		assert.Equal(t, "category", out.Violations[2].Field)
	})

	t.Run("missing required value", func(t *testing.T) {
		r := carpet()
		r.Result = nil
		out := v.Validate(ctx, r)
		require.Len(t, out.Violations, 1)
		assert.Equal(t, "result.value", out.Violations[0].Field)
	})

	t.Run("optional present and wrong", func(t *testing.T) {
		r := carpet()
		r.Labels = map[string]string{"site": "remote"}
		out := v.Validate(ctx, r)
		require.Len(t, out.Violations, 1)
		assert.Equal(t, "labels.site", out.Violations[0].Field)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		r := carpet()
		before := r.Clone()
		v.Validate(ctx, r)
		assert.True(t, before.Equal(r))
	})
}

// TestValidate_Substitutable checks that a rules configuration equivalent to
// validation.Basic's quantity check reports identical outcomes.
func TestValidate_Substitutable(t *testing.T) {
	v, err := New([]Rule{
		{Name: validation.RuleQuantityNonNegative, Path: "$.quantity", Constraint: ">= 0"},
	})
	require.NoError(t, err)
	basic := validation.Basic()

	ctx := context.Background()
	for _, q := range []int{-5, -1, 0, 1, 42} {
		r := carpet()
		r.Quantity = q
		assert.Equal(t, basic.Validate(ctx, r), v.Validate(ctx, r), "quantity %d", q)
	}
}
