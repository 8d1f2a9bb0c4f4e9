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

package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/NVIDIA/recordpipe/pkg/record"
)

// Status is the verdict of a validation.
type Status string

const (
	// StatusAccepted means the record satisfies every rule.
	StatusAccepted Status = "accepted"
	// StatusRejected means at least one rule was violated.
	StatusRejected Status = "rejected"
)

// Violation describes one broken rule.
type Violation struct {
	// Rule names the rule that was violated.
	Rule string `json:"rule" yaml:"rule"`
	// Field is the record field the rule applies to, if any.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	// Message is a human-readable description.
	Message string `json:"message" yaml:"message"`
}

// String returns "field: message" or just the message when no field is set.
func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Outcome is either accepted, or rejected with an ordered list of reasons.
// The status is derived from the violations, so an outcome is never
// partially valid.
type Outcome struct {
	Status     Status      `json:"status" yaml:"status"`
	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// Accept returns an accepted outcome.
func Accept() Outcome {
	return Outcome{Status: StatusAccepted}
}

// NewOutcome returns rejected when violations is non-empty, accepted otherwise.
func NewOutcome(violations ...Violation) Outcome {
	if len(violations) == 0 {
		return Accept()
	}
	return Outcome{Status: StatusRejected, Violations: violations}
}

// Accepted reports whether the record passed.
func (o Outcome) Accepted() bool {
	return o.Status == StatusAccepted
}

// Error summarizes the violations, or returns "" when accepted.
func (o Outcome) Error() string {
	if o.Accepted() {
		return ""
	}
	parts := make([]string, 0, len(o.Violations))
	for _, v := range o.Violations {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

// Validator checks a record against business rules.
//
// Implementations are pure functions of the record and their own rule
// configuration. They must not mutate the record and must report problems
// through the Outcome rather than panicking.
type Validator interface {
	Validate(ctx context.Context, r record.Record) Outcome
}

// Func adapts an ordinary function to the Validator interface.
type Func func(ctx context.Context, r record.Record) Outcome

// Validate calls f(ctx, r).
func (f Func) Validate(ctx context.Context, r record.Record) Outcome {
	return f(ctx, r)
}

// All runs validators in order and concatenates their violations.
func All(validators ...Validator) Validator {
	return Func(func(ctx context.Context, r record.Record) Outcome {
		var violations []Violation
		for _, v := range validators {
			violations = append(violations, v.Validate(ctx, r).Violations...)
		}
		return NewOutcome(violations...)
	})
}

// AcceptAll accepts every record.
var AcceptAll Validator = Func(func(context.Context, record.Record) Outcome {
	return Accept()
})
