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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recordpipe/pkg/config"
	"github.com/NVIDIA/recordpipe/pkg/pipeline"
	"github.com/NVIDIA/recordpipe/pkg/serializer"
	"github.com/NVIDIA/recordpipe/pkg/tracing"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage: fmt.Sprintf("Output format (supported values: %s)",
			strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Required: true,
		Usage:    "Path or HTTP(S) URL of a YAML or JSON list of records",
	}
}

func storeFlags() []cli.Flag {
	kinds := make([]string, 0, len(config.SupportedStoreKinds()))
	for _, k := range config.SupportedStoreKinds() {
		kinds = append(kinds, string(k))
	}
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "store",
			Usage: fmt.Sprintf("Store kind, overrides the configuration (supported values: %s)", strings.Join(kinds, ", ")),
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "SQLite database path, implies --store=sqlite",
		},
	}
}

// parseOutputFormat reads the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	return serializer.ParseFormat(cmd.String("format"))
}

// writeOutput serializes v to --output, or to the root command's writer.
func writeOutput(ctx context.Context, cmd *cli.Command, v any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	var w *serializer.Writer
	if path := cmd.String("output"); path != "" {
		w, err = serializer.NewFileWriterOrStdout(format, path)
		if err != nil {
			return err
		}
	} else {
		w = serializer.NewWriter(format, cmd.Root().Writer)
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()

	return w.Serialize(ctx, v)
}

// loadConfig reads --config and applies the command line overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if kind := cmd.String("store"); kind != "" {
		cfg.Store.Kind = config.StoreKind(strings.ToLower(kind))
	}
	if db := cmd.String("db"); db != "" {
		cfg.Store.Kind = config.StoreSQLite
		cfg.Store.Path = db
	}
	if cmd.Bool("trace") {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = tracing.ExporterStdout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is a runtime built for one command invocation.
type session struct {
	cfg     *config.Config
	runtime *config.Runtime
	tracer  *tracing.Provider
}

// openSession loads configuration and builds the runtime with tracing
// wired into the pipeline. Close must be called when done.
func openSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, err
	}

	rt, err := config.Build(ctx, cfg,
		config.WithPipelineOptions(pipeline.WithTracerProvider(tp.TracerProvider())))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	slog.Debug("runtime ready",
		"store", cfg.Store.Kind,
		"tags", len(rt.Registry.Tags()),
		"tracing", tp.Enabled())

	return &session{cfg: cfg, runtime: rt, tracer: tp}, nil
}

// Close flushes traces and releases the store.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.tracer.Shutdown(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
	if err := s.runtime.Close(); err != nil {
		slog.Warn("failed to close runtime", "error", err)
	}
}
