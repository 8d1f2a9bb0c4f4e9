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

package server

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
)

// Config holds server configuration.
type Config struct {
	// Server identity
	Name    string
	Version string

	Address string
	Port    int

	// Rate limiting for /v1 routes
	RateLimit      rate.Limit // requests per second
	RateLimitBurst int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// RecordTimeout bounds one record submission including save retries.
	RecordTimeout time.Duration
}

// NewConfig returns defaults with PORT and SHUTDOWN_TIMEOUT_SECONDS applied.
func NewConfig() *Config {
	cfg := &Config{
		Name:              "recordpiped",
		Version:           "dev",
		Port:              8080,
		RateLimit:         100,
		RateLimitBurst:    200,
		MaxBodyBytes:      1 << 20,
		ReadTimeout:       defaults.ServerReadTimeout,
		ReadHeaderTimeout: defaults.ServerReadHeaderTimeout,
		WriteTimeout:      defaults.ServerWriteTimeout,
		IdleTimeout:       defaults.ServerIdleTimeout,
		ShutdownTimeout:   defaults.ServerShutdownTimeout,
		RecordTimeout:     defaults.RecordHandlerTimeout,
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		} else {
			slog.Warn("ignoring invalid PORT", "value", v)
		}
	}

	// lets the shutdown window follow the pod's termination grace period
	if v := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}
