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
	"testing"
)

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantOp      Operator
		wantValue   string
		expectError bool
	}{
		// Comparison operators
		{name: "greater or equal", expression: ">= 0", wantOp: OperatorGTE, wantValue: "0"},
		{name: "less or equal", expression: "<= 99.5", wantOp: OperatorLTE, wantValue: "99.5"},
		{name: "greater than", expression: "> -1", wantOp: OperatorGT, wantValue: "-1"},
		{name: "less than", expression: "< 1e3", wantOp: OperatorLT, wantValue: "1e3"},
		{name: "equal op", expression: "== circle", wantOp: OperatorEQ, wantValue: "circle"},
		{name: "not equal", expression: "!= internal", wantOp: OperatorNE, wantValue: "internal"},

		// Exact match (no operator)
		{name: "exact match word", expression: "facilities", wantOp: OperatorExact, wantValue: "facilities"},
		{name: "exact match number", expression: "12", wantOp: OperatorExact, wantValue: "12"},

		// Whitespace handling
		{name: "extra spaces", expression: ">=  10", wantOp: OperatorGTE, wantValue: "10"},
		{name: "leading space", expression: " >= 10", wantOp: OperatorGTE, wantValue: "10"},
		{name: "no space after operator", expression: ">=6.8", wantOp: OperatorGTE, wantValue: "6.8"},
		{name: "no space with ne", expression: "!=rhel", wantOp: OperatorNE, wantValue: "rhel"},

		// Error cases
		{name: "empty expression", expression: "", expectError: true},
		{name: "only spaces", expression: "   ", expectError: true},
		{name: "operator without value", expression: ">=", expectError: true},
		{name: "ordering on text", expression: "> abc", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseConstraint(tt.expression)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Operator != tt.wantOp {
				t.Errorf("operator = %v, want %v", result.Operator, tt.wantOp)
			}
			if result.Value != tt.wantValue {
				t.Errorf("value = %q, want %q", result.Value, tt.wantValue)
			}
		})
	}
}

func TestConstraintEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		actual     string
		want       bool
		wantErr    bool
	}{
		{name: "gte pass", constraint: ">= 0", actual: "0", want: true},
		{name: "gte fail", constraint: ">= 0", actual: "-3", want: false},
		{name: "gt fail on equal", constraint: "> 5", actual: "5", want: false},
		{name: "lte pass", constraint: "<= 10", actual: "9.99", want: true},
		{name: "lt pass", constraint: "< 1e3", actual: "999", want: true},
		{name: "numeric eq across forms", constraint: "== 12", actual: "12.0", want: true},
		{name: "numeric ne", constraint: "!= 0", actual: "0.0", want: false},
		{name: "string eq", constraint: "== circle", actual: "circle", want: true},
		{name: "string ne", constraint: "!= internal", actual: "facilities", want: true},
		{name: "exact is literal", constraint: "12", actual: "12.0", want: false},
		{name: "exact trims", constraint: "hq", actual: " hq ", want: true},
		{name: "ordering on text", constraint: ">= 1", actual: "many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseConstraint(tt.constraint)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			got, err := c.Evaluate(tt.actual)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.actual, got, tt.want)
			}
		})
	}
}

func TestConstraintString(t *testing.T) {
	for _, expr := range []string{">= 0", "!= internal", "facilities"} {
		c, err := ParseConstraint(expr)
		if err != nil {
			t.Fatalf("parse %q: %v", expr, err)
		}
		if c.String() != expr {
			t.Errorf("String() = %q, want %q", c.String(), expr)
		}
	}
}
