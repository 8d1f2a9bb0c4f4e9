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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/validation"
)

// Rule is one field constraint.
type Rule struct {
	// Name identifies the rule in violations. Defaults to the path.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Path is a JSONPath into the record's JSON form, e.g. "$.quantity",
	// "$.variant.length" or "$.result.value".
	Path string `json:"path" yaml:"path"`

	// Constraint is the expression the selected value must satisfy,
	// e.g. ">= 0" or "facilities".
	Constraint string `json:"constraint" yaml:"constraint"`

	// Message overrides the default violation message.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Optional rules pass when the path selects nothing.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

type compiledRule struct {
	Rule
	field      string
	constraint *Constraint
	eval       func(context.Context, any) (any, error)
}

// Validator checks records against a fixed list of rules.
// It is safe for concurrent use.
type Validator struct {
	rules []compiledRule
}

// New compiles rules. Malformed paths or constraints are reported here,
// never during validation.
func New(rules []Rule) (*Validator, error) {
	v := &Validator{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if !strings.HasPrefix(r.Path, "$") {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"rule path must be a JSONPath starting with $",
				map[string]any{"index": i, "path": r.Path})
		}
		eval, err := jsonpath.New(r.Path)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"invalid rule path", err, map[string]any{"index": i, "path": r.Path})
		}
		c, err := ParseConstraint(r.Constraint)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"invalid rule constraint", err, map[string]any{"index": i, "path": r.Path})
		}

		field := strings.TrimPrefix(strings.TrimPrefix(r.Path, "$"), ".")
		if r.Name == "" {
			r.Name = field
		}
		v.rules = append(v.rules, compiledRule{Rule: r, field: field, constraint: c, eval: eval})
	}
	return v, nil
}

// Rules returns the configured rules.
func (v *Validator) Rules() []Rule {
	out := make([]Rule, 0, len(v.rules))
	for _, r := range v.rules {
		out = append(out, r.Rule)
	}
	return out
}

// Validate evaluates every rule in order.
func (v *Validator) Validate(ctx context.Context, r record.Record) validation.Outcome {
	doc, err := document(r)
	if err != nil {
		return validation.NewOutcome(validation.Violation{
			Rule:    "encoding",
			Message: fmt.Sprintf("record cannot be encoded: %v", err),
		})
	}

	var violations []validation.Violation
	for _, rule := range v.rules {
		if viol, ok := rule.check(ctx, doc); !ok {
			violations = append(violations, viol)
		}
	}
	return validation.NewOutcome(violations...)
}

func (r compiledRule) check(ctx context.Context, doc any) (validation.Violation, bool) {
	val, err := r.eval(ctx, doc)
	if err != nil || val == nil {
		if r.Optional {
			return validation.Violation{}, true
		}
		return r.violation(fmt.Sprintf("%s is required", r.field)), false
	}

	actual, err := stringify(val)
	if err != nil {
		return r.violation(fmt.Sprintf("%s has an unsupported value", r.field)), false
	}

	ok, err := r.constraint.Evaluate(actual)
	if err != nil {
		return r.violation(fmt.Sprintf("%s must be %s, got %q", r.field, r.constraint, actual)), false
	}
	if !ok {
		return r.violation(fmt.Sprintf("%s must be %s", r.field, r.constraint)), false
	}
	return validation.Violation{}, true
}

func (r compiledRule) violation(msg string) validation.Violation {
	if r.Message != "" {
		msg = r.Message
	}
	return validation.Violation{Rule: r.Name, Field: r.field, Message: msg}
}

// document returns the generic JSON form of r that paths are evaluated on.
func document(r record.Record) (any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func stringify(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case []any, map[string]any:
		b, err := json.Marshal(t)
		return string(b), err
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
