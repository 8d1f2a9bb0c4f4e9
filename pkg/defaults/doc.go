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

// Package defaults provides centralized configuration constants for recordpipe.
//
// # Categories
//
//   - Persistence retry: attempts, backoff interval, factor and jitter
//   - Batch processing: concurrency and overall timeout
//   - Store: cache TTLs, SQLite busy timeout, ConfigMap paging
//   - Server: HTTP server and handler timeouts
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.PersistAttemptTimeout)
//	defer cancel()
//
// Values here are fallbacks. The pipeline RetryPolicy and the config file
// override them per deployment.
package defaults
