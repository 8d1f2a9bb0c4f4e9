// Package rules provides a validation.Validator driven by declarative field
// rules.
//
// Each rule selects a value from the record's JSON form with a JSONPath and
// checks it against a constraint expression:
//
//	v, err := rules.New([]rules.Rule{
//	    {Name: "quantity-non-negative", Path: "$.quantity", Constraint: ">= 0"},
//	    {Path: "$.category", Constraint: "!= internal", Optional: true},
//	    {Path: "$.result.value", Constraint: "< 10000"},
//	})
//
// # Supported Operators
//
//   - ">=", "<=", ">", "<" - numeric comparison
//   - "==", "!=" - numeric when both sides parse as numbers, string otherwise
//   - no operator - exact string match
//
// A missing value violates the rule unless the rule is Optional.
package rules
