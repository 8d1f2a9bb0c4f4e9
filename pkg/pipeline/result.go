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
	"time"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/validation"
)

// Status is the terminal state of a processed record.
type Status string

const (
	// StatusPersisted means the record was computed, accepted and saved.
	StatusPersisted Status = "persisted"
	// StatusRejected means validation rejected the record; nothing was saved.
	StatusRejected Status = "rejected"
	// StatusFailed means a stage failed; see FailureReport.
	StatusFailed Status = "failed"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageCompute  Stage = "compute"
	StageValidate Stage = "validate"
	StagePersist  Stage = "persist"
)

// RejectionReport carries the full validation outcome of a rejected record.
type RejectionReport struct {
	// Record is the computed record that was rejected.
	Record     record.Record          `json:"record" yaml:"record"`
	Violations []validation.Violation `json:"violations" yaml:"violations"`
}

// FailureReport describes why a record could not be processed.
type FailureReport struct {
	// Record is the record as it stood when the stage failed. It carries the
	// computed result when the failure happened after compute.
	Record    record.Record    `json:"record" yaml:"record"`
	Stage     Stage            `json:"stage" yaml:"stage"`
	Code      errors.ErrorCode `json:"code" yaml:"code"`
	Message   string           `json:"message" yaml:"message"`
	Retryable bool             `json:"retryable" yaml:"retryable"`
	// Attempts is the number of save attempts made; zero before persist.
	Attempts int `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	// Err is the originating error.
	Err error `json:"-" yaml:"-"`
}

// Error implements error so a report can be returned where one is expected.
func (f *FailureReport) Error() string {
	return f.Message
}

// Unwrap returns the originating error.
func (f *FailureReport) Unwrap() error {
	return f.Err
}

// Result is the outcome of Process. Exactly one of Persisted, Rejection and
// Failure is set, matching Status.
type Result struct {
	Status    Status            `json:"status" yaml:"status"`
	Persisted *record.Persisted `json:"persisted,omitempty" yaml:"persisted,omitempty"`
	Rejection *RejectionReport  `json:"rejection,omitempty" yaml:"rejection,omitempty"`
	Failure   *FailureReport    `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Record returns the record the result refers to.
func (r Result) Record() record.Record {
	switch {
	case r.Persisted != nil:
		return r.Persisted.Record
	case r.Rejection != nil:
		return r.Rejection.Record
	case r.Failure != nil:
		return r.Failure.Record
	default:
		return record.Record{}
	}
}

// Err returns the failure as an error, or nil when the record did not fail.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Summary counts batch outcomes.
type Summary struct {
	Total     int           `json:"total" yaml:"total"`
	Persisted int           `json:"persisted" yaml:"persisted"`
	Rejected  int           `json:"rejected" yaml:"rejected"`
	Failed    int           `json:"failed" yaml:"failed"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// BatchResult holds per-record results in input order.
type BatchResult struct {
	Summary Summary  `json:"summary" yaml:"summary"`
	Results []Result `json:"results" yaml:"results"`
}
