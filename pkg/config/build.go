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
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/k8s/client"
	"github.com/NVIDIA/recordpipe/pkg/pipeline"
	"github.com/NVIDIA/recordpipe/pkg/registry"
	"github.com/NVIDIA/recordpipe/pkg/shapes"
	"github.com/NVIDIA/recordpipe/pkg/store"
	"github.com/NVIDIA/recordpipe/pkg/store/cached"
	"github.com/NVIDIA/recordpipe/pkg/store/configmap"
	"github.com/NVIDIA/recordpipe/pkg/store/memory"
	"github.com/NVIDIA/recordpipe/pkg/store/sqlite"
	"github.com/NVIDIA/recordpipe/pkg/validation"
	"github.com/NVIDIA/recordpipe/pkg/validation/rules"
	"github.com/NVIDIA/recordpipe/pkg/validation/schema"
)

// Runtime holds the concrete collaborators built from a Config.
// Close releases whatever the store holds open.
type Runtime struct {
	Registry     *registry.Registry
	Validator    validation.Validator
	Store        store.Store
	Orchestrator *pipeline.Orchestrator

	pinger  func(context.Context) error
	closers []io.Closer
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	kubeClient client.Interface
	pipeline   []pipeline.Option
}

// WithKubeClient uses c for the configmap store instead of building one from
// the kubeconfig.
func WithKubeClient(c client.Interface) BuildOption {
	return func(o *buildOptions) {
		o.kubeClient = c
	}
}

// WithPipelineOptions passes options through to pipeline.New.
func WithPipelineOptions(opts ...pipeline.Option) BuildOption {
	return func(o *buildOptions) {
		o.pipeline = append(o.pipeline, opts...)
	}
}

// Build constructs the registry, validator, store and orchestrator described
// by cfg. The registry holds the built-in computations and is frozen.
func Build(ctx context.Context, cfg *Config, opts ...BuildOption) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "config cannot be nil")
	}
	o := &buildOptions{}
	for _, opt := range opts {
		opt(o)
	}

	rt := &Runtime{}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	rt.Registry = reg

	v, err := BuildValidator(cfg.Validation)
	if err != nil {
		return nil, err
	}
	rt.Validator = v

	if err := rt.openStore(ctx, cfg.Store, o); err != nil {
		return nil, err
	}

	popts := append([]pipeline.Option{pipeline.WithRetryPolicy(cfg.Retry)}, o.pipeline...)
	rt.Orchestrator, err = pipeline.New(rt.Registry, rt.Validator, rt.Store, popts...)
	if err != nil {
		return nil, err
	}

	ok = true
	return rt, nil
}

// NewRegistry returns a frozen registry holding the built-in computations.
// The daemon and every CLI command get their catalog from here.
func NewRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := shapes.RegisterAll(reg); err != nil {
		return nil, err
	}
	reg.Freeze()
	return reg, nil
}

// BuildValidator composes the validators vc enables. With none enabled every
// record is accepted.
func BuildValidator(vc ValidationConfig) (validation.Validator, error) {
	var vs []validation.Validator
	if vc.Basic {
		vs = append(vs, validation.Basic())
	}
	if len(vc.Rules) > 0 {
		rv, err := rules.New(vc.Rules)
		if err != nil {
			return nil, err
		}
		vs = append(vs, rv)
	}
	if vc.Schema != "" {
		sv, err := schema.NewFromFile(vc.Schema)
		if err != nil {
			return nil, err
		}
		vs = append(vs, sv)
	}

	switch len(vs) {
	case 0:
		slog.Warn("no validators configured, all records will be accepted")
		return validation.AcceptAll, nil
	case 1:
		return vs[0], nil
	default:
		return validation.All(vs...), nil
	}
}

func (rt *Runtime) openStore(ctx context.Context, sc StoreConfig, o *buildOptions) error {
	var st store.Store
	switch sc.Kind {
	case StoreMemory:
		st = memory.New()

	case StoreSQLite:
		db, err := sqlite.Open(ctx, sc.Path)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, db)
		rt.pinger = db.Ping
		st = db

	case StoreConfigMap:
		kc := o.kubeClient
		if kc == nil {
			c, restConfig, err := client.GetKubeClientWithConfig(sc.Kubeconfig)
			if err != nil {
				return err
			}
			slog.Debug("kubernetes client ready",
				"host", restConfig.Host,
				"auth", client.AuthMethod(restConfig))
			kc = c
		}
		cm, err := configmap.New(kc, sc.Namespace)
		if err != nil {
			return err
		}
		st = cm

	default:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "unsupported store kind",
			map[string]any{"kind": sc.Kind})
	}

	if sc.CacheTTL > 0 {
		c, err := cached.New(st, cached.WithTTL(sc.CacheTTL))
		if err != nil {
			return err
		}
		// closing the cache closes the store it wraps
		rt.closers = []io.Closer{c}
		st = c
	}

	slog.Debug("store opened", "kind", sc.Kind, "cached", sc.CacheTTL > 0)
	rt.Store = st
	return nil
}

// Ping reports whether the store is reachable. Stores without a
// connection always succeed.
func (rt *Runtime) Ping(ctx context.Context) error {
	if rt.pinger == nil {
		return nil
	}
	return rt.pinger(ctx)
}

// Close releases the store. It is safe to call more than once.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return stderrors.Join(errs...)
}
