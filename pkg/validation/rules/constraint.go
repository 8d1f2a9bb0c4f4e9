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
	"fmt"
	"strconv"
	"strings"

	"github.com/NVIDIA/recordpipe/pkg/errors"
)

// Operator represents a comparison operator in constraint expressions.
type Operator string

const (
	// OperatorGTE represents ">=" (greater than or equal).
	OperatorGTE Operator = ">="

	// OperatorLTE represents "<=" (less than or equal).
	OperatorLTE Operator = "<="

	// OperatorGT represents ">" (greater than).
	OperatorGT Operator = ">"

	// OperatorLT represents "<" (less than).
	OperatorLT Operator = "<"

	// OperatorEQ represents "==" (equality, numeric when both sides are numbers).
	OperatorEQ Operator = "=="

	// OperatorNE represents "!=" (not equal).
	OperatorNE Operator = "!="

	// OperatorExact represents no operator (exact string match).
	OperatorExact Operator = ""
)

// Constraint is a parsed constraint expression.
type Constraint struct {
	// Operator is the comparison operator (or empty for exact match).
	Operator Operator

	// Value is the expected value after the operator.
	Value string

	// number holds Value parsed as a float when it is numeric.
	number  float64
	numeric bool
}

// ParseConstraint parses a constraint expression.
// Examples:
//   - ">= 0"       -> {Operator: ">=", Value: "0"}
//   - "facilities" -> {Operator: "", Value: "facilities"}
//   - "!= circle"  -> {Operator: "!=", Value: "circle"}
//
// Ordering operators require a numeric value.
func ParseConstraint(expr string) (*Constraint, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "constraint expression cannot be empty")
	}

	c := &Constraint{Operator: OperatorExact, Value: expr}

	// longest first so ">=" is not read as ">"
	for _, op := range []Operator{OperatorGTE, OperatorLTE, OperatorNE, OperatorEQ, OperatorGT, OperatorLT} {
		if strings.HasPrefix(expr, string(op)) {
			c.Operator = op
			c.Value = strings.TrimSpace(strings.TrimPrefix(expr, string(op)))
			break
		}
	}

	if c.Value == "" {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"constraint value cannot be empty after operator", map[string]any{"expression": expr})
	}

	c.number, c.numeric = parseNumber(c.Value)
	if c.ordering() && !c.numeric {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("operator %s requires a numeric value", c.Operator),
			map[string]any{"expression": expr})
	}

	return c, nil
}

func (c *Constraint) ordering() bool {
	switch c.Operator {
	case OperatorGTE, OperatorGT, OperatorLTE, OperatorLT:
		return true
	default:
		return false
	}
}

// Evaluate reports whether actual satisfies the constraint.
// Returns an error when an ordering operator meets a non-numeric value.
func (c *Constraint) Evaluate(actual string) (bool, error) {
	actual = strings.TrimSpace(actual)
	n, numeric := parseNumber(actual)

	switch c.Operator {
	case OperatorExact:
		return actual == c.Value, nil

	case OperatorEQ:
		if numeric && c.numeric {
			return n == c.number, nil
		}
		return actual == c.Value, nil

	case OperatorNE:
		if numeric && c.numeric {
			return n != c.number, nil
		}
		return actual != c.Value, nil

	case OperatorGTE, OperatorGT, OperatorLTE, OperatorLT:
		if !numeric {
			return false, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"value is not numeric", map[string]any{"value": actual})
		}

		//nolint:exhaustive // only ordering operators reach this point
		switch c.Operator {
		case OperatorGTE:
			return n >= c.number, nil
		case OperatorGT:
			return n > c.number, nil
		case OperatorLTE:
			return n <= c.number, nil
		default:
			return n < c.number, nil
		}

	default:
		return false, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"unknown operator", map[string]any{"operator": c.Operator})
	}
}

// String returns a string representation of the constraint.
func (c *Constraint) String() string {
	if c.Operator == OperatorExact {
		return c.Value
	}
	return fmt.Sprintf("%s %s", c.Operator, c.Value)
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
