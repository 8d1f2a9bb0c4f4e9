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

package defaults

import "time"

// Persistence retry defaults used when the caller does not configure a policy.
const (
	// PersistMaxAttempts is the total number of save attempts, including the first.
	PersistMaxAttempts = 4

	// PersistInitialInterval is the wait before the first retry.
	PersistInitialInterval = 100 * time.Millisecond

	// PersistBackoffFactor multiplies the wait after every retry.
	PersistBackoffFactor = 2.0

	// PersistBackoffJitter adds up to this fraction of the wait as random jitter.
	PersistBackoffJitter = 0.1

	// PersistAttemptTimeout bounds a single save call.
	// A deadline hit on one attempt is retried like any retryable failure.
	PersistAttemptTimeout = 10 * time.Second
)

// Batch processing defaults.
const (
	// BatchConcurrency is the number of records processed in parallel.
	BatchConcurrency = 4

	// BatchTimeout bounds a whole CLI batch run.
	BatchTimeout = 10 * time.Minute
)

// Store defaults.
const (
	// StoreCacheTTL is the default expiration for cached Find results.
	StoreCacheTTL = 5 * time.Minute

	// StoreCacheCleanupInterval is how often expired cache entries are purged.
	StoreCacheCleanupInterval = 10 * time.Minute

	// SQLiteBusyTimeout is how long SQLite waits on a locked database before
	// reporting SQLITE_BUSY.
	SQLiteBusyTimeout = 5 * time.Second

	// StoreListPageSize is the number of records fetched per round trip when
	// a store traverses its contents.
	StoreListPageSize = 100

	// ConfigMapWriteTimeout is the timeout for writing to ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// RecordHandlerTimeout is the timeout for a single record submission,
	// including persistence retries.
	RecordHandlerTimeout = 45 * time.Second
)

// HTTP client timeouts for fetching remote input files.
const (
	// HTTPClientTimeout bounds a whole request including the body read.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout bounds establishing a TCP connection.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPKeepAlive is the keep-alive period for client connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPTLSHandshakeTimeout bounds the TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout bounds waiting for response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is how long idle connections stay pooled.
	HTTPIdleConnTimeout = 90 * time.Second
)
