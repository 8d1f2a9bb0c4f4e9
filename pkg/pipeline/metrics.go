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

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordpipe_records_processed_total",
			Help: "Total number of records processed by terminal status",
		},
		[]string{"status"}, // persisted, rejected, failed
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recordpipe_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	persistRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recordpipe_persist_retries_total",
			Help: "Total number of save attempts repeated after a retryable failure",
		},
	)
)
