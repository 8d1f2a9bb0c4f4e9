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

package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/logging"
	"github.com/NVIDIA/recordpipe/pkg/pipeline"
	"github.com/NVIDIA/recordpipe/pkg/tracing"
	"github.com/NVIDIA/recordpipe/pkg/validation/rules"
)

// Environment variables that override file values.
const (
	EnvStore      = "RECORDPIPE_STORE"
	EnvSQLitePath = "RECORDPIPE_SQLITE_PATH"
	EnvPort       = "PORT"
	EnvTrace      = "RECORDPIPE_TRACE"
)

// StoreKind selects the persistence adapter.
type StoreKind string

const (
	StoreMemory    StoreKind = "memory"
	StoreSQLite    StoreKind = "sqlite"
	StoreConfigMap StoreKind = "configmap"
)

// SupportedStoreKinds lists the accepted store kinds.
func SupportedStoreKinds() []StoreKind {
	return []StoreKind{StoreMemory, StoreSQLite, StoreConfigMap}
}

// Config is the file-backed configuration shared by the CLI and the service.
type Config struct {
	LogLevel   string               `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	Store      StoreConfig          `json:"store" yaml:"store"`
	Retry      pipeline.RetryPolicy `json:"retry" yaml:"retry"`
	Validation ValidationConfig     `json:"validation" yaml:"validation"`
	Batch      BatchConfig          `json:"batch" yaml:"batch"`
	Server     ServerConfig         `json:"server" yaml:"server"`
	Tracing    tracing.Config       `json:"tracing" yaml:"tracing"`
}

// StoreConfig selects and configures the store.
type StoreConfig struct {
	Kind StoreKind `json:"kind" yaml:"kind"`

	// Path is the SQLite database file.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Namespace and Kubeconfig apply to the configmap store. An empty
	// kubeconfig uses automatic discovery.
	Namespace  string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Kubeconfig string `json:"kubeconfig,omitempty" yaml:"kubeconfig,omitempty"`

	// CacheTTL enables the read-through cache when positive.
	CacheTTL time.Duration `json:"cacheTTL,omitempty" yaml:"cacheTTL,omitempty"`
}

// ValidationConfig composes the validator. Every configured validator must
// accept a record for it to be persisted.
type ValidationConfig struct {
	// Basic enables the built-in name, quantity and tag checks.
	Basic bool `json:"basic" yaml:"basic"`

	// Rules are constraint expressions over the record's JSON form.
	Rules []rules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`

	// Schema is the path of a JSON Schema file records must satisfy.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// BatchConfig tunes batch processing.
type BatchConfig struct {
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// ServerConfig tunes the HTTP service.
type ServerConfig struct {
	Address        string  `json:"address,omitempty" yaml:"address,omitempty"`
	Port           int     `json:"port" yaml:"port"`
	RateLimit      float64 `json:"rateLimit" yaml:"rateLimit"`
	RateLimitBurst int     `json:"rateLimitBurst" yaml:"rateLimitBurst"`
}

// Default returns the configuration used when no file is given: an
// in-memory store, basic validation and the default retry policy.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store: StoreConfig{
			Kind:      StoreMemory,
			Path:      "recordpipe.db",
			Namespace: "default",
		},
		Retry:      pipeline.DefaultRetryPolicy(),
		Validation: ValidationConfig{Basic: true},
		Batch:      BatchConfig{Concurrency: defaults.BatchConcurrency},
		Server: ServerConfig{
			Port:           8080,
			RateLimit:      100,
			RateLimitBurst: 200,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"failed to read config file", err, map[string]any{"path": path})
		}
		if err := cfg.decode(data); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"failed to parse config file", err, map[string]any{"path": path})
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates it. Environment
// overrides are not applied.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to parse config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides file values from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Kind = StoreKind(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid %s", EnvPort), err, map[string]any{"value": v})
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvTrace); v != "" {
		c.Tracing.Enabled = v != tracing.ExporterNone
		c.Tracing.Exporter = v
	}
	if v := os.Getenv(logging.EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "store.path is required for the sqlite store")
		}
	case StoreConfigMap:
		if c.Store.Namespace == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "store.namespace is required for the configmap store")
		}
	default:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported store kind %q", c.Store.Kind),
			map[string]any{"supported": SupportedStoreKinds()})
	}

	if c.Store.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "store.cacheTTL cannot be negative")
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if c.Batch.Concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidRequest, "batch.concurrency must be at least 1")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"server.port out of range", map[string]any{"port": c.Server.Port})
	}
	if c.Server.RateLimit <= 0 || c.Server.RateLimitBurst < 1 {
		return errors.New(errors.ErrCodeInvalidRequest, "server rate limit and burst must be positive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"tracing.sampleRate must be between 0 and 1", map[string]any{"sampleRate": c.Tracing.SampleRate})
	}
	return nil
}
