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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/store"
	"github.com/NVIDIA/recordpipe/pkg/validation"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

const tracerName = "github.com/NVIDIA/recordpipe/pkg/pipeline"

// Computer derives a result from a variant. *registry.Registry implements it.
type Computer interface {
	Compute(v variant.Variant) (variant.Result, error)
}

// Orchestrator sequences compute, validate and persist for each record.
//
// It holds only its three collaborators and immutable options, so one
// Orchestrator may serve any number of concurrent Process calls. It takes no
// locks; collaborators are responsible for their own synchronization.
type Orchestrator struct {
	computer  Computer
	validator validation.Validator
	store     store.Store
	retry     RetryPolicy
	tracer    trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetryPolicy sets the persistence retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) {
		o.retry = p
	}
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

// New wires an Orchestrator to its collaborators. The caller constructs all
// three; a nil collaborator or an invalid retry policy is a wiring error.
func New(computer Computer, validator validation.Validator, st store.Store, opts ...Option) (*Orchestrator, error) {
	if computer == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "computer cannot be nil")
	}
	if validator == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "validator cannot be nil")
	}
	if st == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "store cannot be nil")
	}

	o := &Orchestrator{
		computer:  computer,
		validator: validator,
		store:     st,
		retry:     DefaultRetryPolicy(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := o.retry.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Process runs r through compute, validate and persist.
//
// Rejection is an ordinary outcome. Registry errors, exhausted or fatal save
// failures, and cancellation end in StatusFailed with the originating error.
// The context is checked between stages; nothing is written before persist,
// so an abandoned call leaves no trace.
func (o *Orchestrator) Process(ctx context.Context, r record.Record) Result {
	ctx, span := o.tracer.Start(ctx, "pipeline.Process", trace.WithAttributes(
		attribute.String("record.name", r.Name),
		attribute.String("variant.tag", r.Variant.Tag().String()),
	))
	defer span.End()

	res := o.process(ctx, span, r)

	recordsProcessed.WithLabelValues(string(res.Status)).Inc()
	span.SetAttributes(attribute.String("pipeline.status", string(res.Status)))
	switch res.Status {
	case StatusFailed:
		span.RecordError(res.Failure.Err)
		span.SetStatus(codes.Error, res.Failure.Message)
	case StatusPersisted:
		span.SetAttributes(
			attribute.String("record.id", res.Persisted.ID()),
			attribute.Bool("record.duplicate", res.Persisted.Duplicate),
		)
		span.SetStatus(codes.Ok, "")
	case StatusRejected:
		span.SetAttributes(attribute.Int("validation.violations", len(res.Rejection.Violations)))
		span.SetStatus(codes.Ok, "")
	}
	return res
}

func (o *Orchestrator) process(ctx context.Context, span trace.Span, r record.Record) Result {
	// received -> computed
	if err := ctx.Err(); err != nil {
		return failed(r, StageCompute, abandoned(StageCompute, err), 0)
	}
	start := time.Now()
	res, err := o.computer.Compute(r.Variant)
	observeStage(StageCompute, start)
	if err != nil {
		return failed(r, StageCompute, err, 0)
	}
	computed := r.WithResult(res)
	span.AddEvent("computed", trace.WithAttributes(attribute.Float64("result.value", res.Value)))
	slog.Debug("record computed", "name", r.Name, "tag", r.Variant.Tag(), "value", res.Value)

	// computed -> validated | rejected
	if err := ctx.Err(); err != nil {
		return failed(computed, StageValidate, abandoned(StageValidate, err), 0)
	}
	start = time.Now()
	outcome := normalize(o.validator.Validate(ctx, computed))
	observeStage(StageValidate, start)
	if !outcome.Accepted() {
		span.AddEvent("rejected")
		slog.Debug("record rejected", "name", r.Name, "violations", len(outcome.Violations))
		return Result{
			Status:    StatusRejected,
			Rejection: &RejectionReport{Record: computed, Violations: outcome.Violations},
		}
	}
	span.AddEvent("validated")

	// validated -> persisted
	if err := ctx.Err(); err != nil {
		return failed(computed, StagePersist, abandoned(StagePersist, err), 0)
	}
	start = time.Now()
	persisted, attempts, err := o.persist(ctx, computed)
	observeStage(StagePersist, start)
	span.SetAttributes(attribute.Int("persist.attempts", attempts))
	if err != nil {
		return failed(computed, StagePersist, err, attempts)
	}
	span.AddEvent("persisted")
	slog.Debug("record persisted", "id", persisted.ID(), "duplicate", persisted.Duplicate, "attempts", attempts)

	return Result{Status: StatusPersisted, Persisted: &persisted}
}

// normalize derives the status from the violations so a validator cannot
// report a partially valid outcome.
func normalize(out validation.Outcome) validation.Outcome {
	if len(out.Violations) == 0 && out.Status == validation.StatusRejected {
		return validation.NewOutcome(validation.Violation{
			Rule:    "validator",
			Message: "record rejected without reasons",
		})
	}
	return validation.NewOutcome(out.Violations...)
}

func failed(r record.Record, stage Stage, err error, attempts int) Result {
	slog.Debug("record failed", "name", r.Name, "stage", stage, "error", err)
	return Result{
		Status: StatusFailed,
		Failure: &FailureReport{
			Record:    r,
			Stage:     stage,
			Code:      errors.CodeOf(err),
			Message:   err.Error(),
			Retryable: errors.IsRetryable(err),
			Attempts:  attempts,
			Err:       err,
		},
	}
}

func observeStage(stage Stage, start time.Time) {
	stageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
