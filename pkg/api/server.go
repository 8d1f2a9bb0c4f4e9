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

package api

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/recordpipe/pkg/config"
	"github.com/NVIDIA/recordpipe/pkg/logging"
	"github.com/NVIDIA/recordpipe/pkg/pipeline"
	"github.com/NVIDIA/recordpipe/pkg/server"
	"github.com/NVIDIA/recordpipe/pkg/tracing"
)

const (
	name           = "recordpiped"
	versionDefault = "dev"

	// EnvConfigFile names the configuration file Serve loads. Unset means
	// defaults plus environment overrides.
	EnvConfigFile = "RECORDPIPE_CONFIG"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/recordpipe/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve loads configuration, builds the pipeline and serves it until SIGINT
// or SIGTERM.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	cfg, err := config.Load(os.Getenv(EnvConfigFile))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}
	if cfg.LogLevel != "" {
		logging.SetDefaultStructuredLoggerWithLevel(name, version, cfg.LogLevel)
	}

	return Run(ctx, cfg, version)
}

// Run builds the runtime described by cfg and serves it until ctx is
// canceled or a shutdown signal arrives.
func Run(ctx context.Context, cfg *config.Config, ver string, opts ...config.BuildOption) error {
	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	opts = append(opts, config.WithPipelineOptions(pipeline.WithTracerProvider(tp.TracerProvider())))
	s, rt, err := NewServer(ctx, cfg, ver, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			slog.Warn("failed to close runtime", "error", err)
		}
	}()

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// NewServer builds the runtime and a server over it. The caller closes the
// runtime.
func NewServer(ctx context.Context, cfg *config.Config, ver string, opts ...config.BuildOption) (*server.Server, *config.Runtime, error) {
	rt, err := config.Build(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}

	s, err := server.New(rt.Orchestrator, rt.Registry, rt.Store,
		server.WithConfig(ServerConfig(cfg, ver)),
		server.WithReadinessCheck(rt.Ping),
	)
	if err != nil {
		_ = rt.Close()
		return nil, nil, err
	}
	return s, rt, nil
}

// ServerConfig maps the file configuration onto the server's.
func ServerConfig(cfg *config.Config, ver string) *server.Config {
	sc := server.NewConfig()
	sc.Name = name
	if ver != "" {
		sc.Version = ver
	}
	sc.Address = cfg.Server.Address
	sc.Port = cfg.Server.Port
	sc.RateLimit = rate.Limit(cfg.Server.RateLimit)
	sc.RateLimitBurst = cfg.Server.RateLimitBurst
	return sc
}
