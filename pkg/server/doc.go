// Package server exposes the record pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/records        process a record (compute, validate, persist)
//	GET  /v1/records        list stored records (?limit=N, default 100)
//	GET  /v1/records/{id}   fetch one stored record
//	POST /v1/compute        compute a variant without storing it
//	GET  /v1/tags           registered computations
//	GET  /health            liveness
//	GET  /ready             readiness, including the store check
//	GET  /metrics           Prometheus metrics
//
// POST /v1/records answers 201 for a new record, 200 when the record was
// already stored under the same idempotency key, 422 with the violations when
// validation rejects it, 400 for malformed input or an unsupported variant,
// 503 with Retry-After for retryable failures and 500 otherwise. The
// Idempotency-Key header sets the record's key.
//
// # Middleware
//
// API routes pass through metrics, API version negotiation, request IDs
// (X-Request-Id), panic recovery, token-bucket rate limiting and debug request
// logging. System endpoints skip the rate limiter.
//
// # Lifecycle
//
//	s, err := server.New(rt.Orchestrator, rt.Registry, rt.Store,
//	    server.WithConfig(cfg),
//	    server.WithReadinessCheck(rt.Ping))
//	if err != nil {
//	    return err
//	}
//	return s.Run(ctx) // returns after SIGINT/SIGTERM and graceful shutdown
//
// PORT and SHUTDOWN_TIMEOUT_SECONDS override NewConfig defaults.
package server
