// Package errors provides structured error types for better observability
// and programmatic error handling across recordpipe.
//
// Registry wiring failures (DUPLICATE_TAG, REGISTRY_FROZEN), dispatch
// failures (UNSUPPORTED_VARIANT) and storage failures (PERSISTENCE,
// NOT_FOUND) all surface as *StructuredError so callers can branch on the
// code instead of the message. Storage failures additionally carry a
// Retryable flag that the pipeline uses to decide whether to back off and
// try again.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodePersistence,
//	    "failed to insert record",
//	    cause,
//	    map[string]any{
//	        "key": record.IdempotencyKey(),
//	    },
//	)
//
//	if errors.IsRetryable(err) {
//	    // back off and retry
//	}
package errors
