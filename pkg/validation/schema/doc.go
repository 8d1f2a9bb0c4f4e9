// Package schema provides a validation.Validator backed by JSON Schema.
//
// The schema is applied to the record's JSON form, so property names match
// the record's json tags (name, quantity, variant, result, labels).
package schema
