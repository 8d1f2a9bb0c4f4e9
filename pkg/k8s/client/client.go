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

package client

import (
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/NVIDIA/recordpipe/pkg/errors"
)

// Interface is an alias for kubernetes.Interface so callers can pass
// fake.NewClientset() in tests.
type Interface = kubernetes.Interface

var (
	clientOnce   sync.Once
	cachedClient *kubernetes.Clientset
	cachedConfig *rest.Config
	clientErr    error
)

// GetKubeClient returns a process-wide client, building it on first call from
// automatic discovery (see BuildKubeClient). Later calls return the cached
// client and error.
func GetKubeClient() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = BuildKubeClient("")
	})
	return cachedClient, cachedConfig, clientErr
}

// GetKubeClientWithConfig builds a client for an explicit kubeconfig path, or
// returns the shared client when kubeconfig is empty.
func GetKubeClientWithConfig(kubeconfig string) (Interface, *rest.Config, error) {
	if kubeconfig == "" {
		return GetKubeClient()
	}
	return BuildKubeClient(kubeconfig)
}

// BuildKubeClient creates a client without caching.
//
// When kubeconfig is empty the source is discovered in this order:
//  1. KUBECONFIG environment variable
//  2. ~/.kube/config, if it exists
//  3. in-cluster service account
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	kubeconfig = ResolveKubeconfig(kubeconfig)

	var (
		config *rest.Config
		err    error
	)
	if kubeconfig == "" {
		// avoids the "Neither --kubeconfig nor --master was specified" warning
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to get in-cluster config", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"failed to build kube config", err, map[string]any{"kubeconfig": kubeconfig})
		}
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, "failed to create kubernetes client", err)
	}

	return client, config, nil
}

// ResolveKubeconfig returns the kubeconfig path that BuildKubeClient would
// use, or "" when it would fall back to in-cluster configuration.
func ResolveKubeconfig(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}

// AuthMethod names how config authenticates, for audit logging.
func AuthMethod(config *rest.Config) string {
	switch {
	case config == nil:
		return "none"
	case config.AuthProvider != nil:
		return config.AuthProvider.Name
	case config.ExecProvider != nil:
		return "exec"
	case config.BearerToken != "" || config.BearerTokenFile != "":
		return "bearer-token"
	case config.CertData != nil || config.CertFile != "":
		return "cert"
	default:
		return "default"
	}
}
