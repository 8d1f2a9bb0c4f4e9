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

package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/NVIDIA/recordpipe/pkg/errors"
)

// Exporter names.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Config configures tracing.
type Config struct {
	// Enabled selects a real provider. Disabled tracing uses a no-op provider.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Exporter is "stdout" or "none". With "none" spans are created but
	// never exported.
	Exporter string `json:"exporter" yaml:"exporter"`

	// SampleRate is the fraction of root traces sampled. Zero means all.
	SampleRate float64 `json:"sampleRate" yaml:"sampleRate"`

	ServiceName string `json:"serviceName" yaml:"serviceName"`

	// Writer receives stdout exporter output. Defaults to stderr so traces do
	// not mix with command output.
	Writer io.Writer `json:"-" yaml:"-"`
}

// DefaultConfig returns a disabled configuration.
func DefaultConfig() Config {
	return Config{
		Exporter:    ExporterStdout,
		SampleRate:  1.0,
		ServiceName: "recordpipe",
	}
}

// Provider owns the tracer provider and flushes it on Shutdown.
type Provider struct {
	sdk      *sdktrace.TracerProvider
	provider trace.TracerProvider
}

// NewProvider builds a provider from cfg and installs it as the global
// provider when enabled.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{provider: noop.NewTracerProvider()}, nil
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create stdout exporter", err)
		}
		exporter = exp
	case ExporterNone, "":
	default:
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "unsupported trace exporter",
			map[string]any{"exporter": cfg.Exporter})
	}

	name := cfg.ServiceName
	if name == "" {
		name = "recordpipe"
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	opts := []sdktrace.TracerProviderOption{
		// schemaless avoids schema URL conflicts with resource.Default()
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	sdk := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(sdk)
	return &Provider{sdk: sdk, provider: sdk}, nil
}

// TracerProvider returns the provider to hand to instrumented packages.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.provider
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Shutdown exports pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	if err := p.sdk.Shutdown(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to shut down tracer provider", err)
	}
	return nil
}
