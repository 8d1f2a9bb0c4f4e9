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
	"strings"

	"github.com/NVIDIA/recordpipe/pkg/record"
)

// Rule names reported by Basic.
const (
	RuleNameRequired        = "name-required"
	RuleQuantityNonNegative = "quantity-non-negative"
	RuleVariantTagRequired  = "variant-tag-required"
)

// Basic enforces the minimal record shape: a non-blank name, a non-negative
// quantity and a tagged variant.
//
// The variant-tag-required rule fires only when Basic is used on its own.
// Inside the pipeline compute runs first, so an untagged record fails there
// with UNSUPPORTED_VARIANT and never reaches validation.
func Basic() Validator {
	return Func(func(_ context.Context, r record.Record) Outcome {
		var violations []Violation
		if strings.TrimSpace(r.Name) == "" {
			violations = append(violations, Violation{
				Rule: RuleNameRequired, Field: "name", Message: "name must not be empty",
			})
		}
		if r.Quantity < 0 {
			violations = append(violations, Violation{
				Rule: RuleQuantityNonNegative, Field: "quantity", Message: "quantity must be >= 0",
			})
		}
		if r.Variant.IsZero() {
			violations = append(violations, Violation{
				Rule: RuleVariantTagRequired, Field: "variant.tag", Message: "variant tag must not be empty",
			})
		}
		return NewOutcome(violations...)
	})
}
