// Package record defines the domain record that flows through the pipeline
// and the persisted form that stores hand back.
//
// A Record has no ID until a store saves it. Stores de-duplicate saves by
// Record.IdempotencyKey, which is the caller-supplied Key when present and a
// content hash otherwise.
package record
