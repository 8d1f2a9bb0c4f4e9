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
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
	"github.com/NVIDIA/recordpipe/pkg/record"
)

// ProcessBatch runs Process for every record with at most concurrency calls
// in flight. Records are independent: one outcome never affects another.
// Results keep input order. A concurrency below 1 uses the default.
func (o *Orchestrator) ProcessBatch(ctx context.Context, records []record.Record, concurrency int) BatchResult {
	if concurrency < 1 {
		concurrency = defaults.BatchConcurrency
	}

	start := time.Now()
	results := make([]Result, len(records))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, r := range records {
		g.Go(func() error {
			results[i] = o.Process(ctx, r)
			return nil
		})
	}
	_ = g.Wait() // Process reports failures in its Result

	batch := BatchResult{Results: results, Summary: Summarize(results)}
	batch.Summary.Duration = time.Since(start)

	slog.Info("batch processed",
		"total", batch.Summary.Total,
		"persisted", batch.Summary.Persisted,
		"rejected", batch.Summary.Rejected,
		"failed", batch.Summary.Failed,
		"duration", batch.Summary.Duration)
	return batch
}

// Summarize counts results by status. Duration is left zero.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPersisted:
			s.Persisted++
		case StatusRejected:
			s.Rejected++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
