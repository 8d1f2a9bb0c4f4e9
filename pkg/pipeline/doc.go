// Package pipeline binds a computation registry, a validator and a store
// into a compute, validate, persist sequence.
//
// The Orchestrator depends only on three abstractions: a Computer (normally a
// frozen *registry.Registry), a validation.Validator and a store.Store. All
// three are constructed by the caller and passed to New:
//
//	reg := registry.New()
//	_ = shapes.RegisterAll(reg)
//	reg.Freeze()
//
//	o, err := pipeline.New(reg, validation.Basic(), memory.New())
//	if err != nil {
//	    return err
//	}
//	res := o.Process(ctx, rec)
//
// # Outcomes
//
// Every call ends in exactly one of three statuses:
//
//   - persisted: the computed record was accepted and stored. A record that
//     was already stored under the same idempotency key counts as persisted
//     with Persisted.Duplicate set.
//   - rejected: the validator reported violations. The store is never called.
//   - failed: computation failed, the context ended, or the save failed after
//     the retry policy gave up. FailureReport names the stage.
//
// # Retries
//
// Saves that fail with a retryable error, or whose attempt deadline expired,
// are repeated with exponential backoff under RetryPolicy. Each attempt sends
// the same record, so the store de-duplicates a write whose acknowledgement
// was lost. Fatal errors are returned after one attempt.
//
// # Batches
//
// ProcessBatch runs records concurrently with a bounded worker count and
// returns results in input order together with a Summary.
package pipeline
