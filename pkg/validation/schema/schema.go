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

package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/validation"
)

// RulePrefix prefixes the rule name of every schema violation.
const RulePrefix = "schema"

// Validator checks records against a JSON Schema.
// The compiled schema is immutable, so Validator is safe for concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles a JSON Schema document.
func New(schemaJSON []byte) (*Validator, error) {
	return compile(gojsonschema.NewBytesLoader(schemaJSON))
}

// NewFromFile compiles the JSON Schema stored at path.
func NewFromFile(path string) (*Validator, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid schema path", err)
	}
	return compile(gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs)))
}

func compile(loader gojsonschema.JSONLoader) (*Validator, error) {
	s, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to compile schema", err)
	}
	return &Validator{schema: s}, nil
}

// Validate checks the JSON form of r. Violations are sorted by field and
// message so the outcome does not depend on schema traversal order.
func (v *Validator) Validate(_ context.Context, r record.Record) validation.Outcome {
	doc, err := json.Marshal(r)
	if err != nil {
		return validation.NewOutcome(validation.Violation{
			Rule:    RulePrefix,
			Message: fmt.Sprintf("record cannot be encoded: %v", err),
		})
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return validation.NewOutcome(validation.Violation{
			Rule:    RulePrefix,
			Message: fmt.Sprintf("schema validation error: %v", err),
		})
	}
	if result.Valid() {
		return validation.Accept()
	}

	violations := make([]validation.Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, validation.Violation{
			Rule:    RulePrefix + ":" + desc.Type(),
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Field != violations[j].Field {
			return violations[i].Field < violations[j].Field
		}
		return violations[i].Message < violations[j].Message
	})
	return validation.NewOutcome(violations...)
}
