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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/rest"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/NVIDIA/recordpipe/pkg/errors"
)

func TestResolveKubeconfig(t *testing.T) {
	t.Setenv("KUBECONFIG", "/from/env")
	assert.Equal(t, "/explicit", ResolveKubeconfig("/explicit"))
	assert.Equal(t, "/from/env", ResolveKubeconfig(""))

	t.Setenv("KUBECONFIG", "")
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, "", ResolveKubeconfig(""))
}

func TestBuildKubeClient_InvalidPaths(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		env  string
	}{
		{name: "explicit invalid path", arg: "/nonexistent/path/to/kubeconfig"},
		{name: "env var with invalid path", env: "/nonexistent/env/kubeconfig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KUBECONFIG", tt.env)

			_, _, err := BuildKubeClient(tt.arg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to build kube config")
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
		})
	}
}

func TestBuildKubeClient_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid-kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte("invalid yaml content"), 0o600))

	_, _, err := BuildKubeClient(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build kube config")
}

func TestBuildKubeClient_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kubeconfig")
	kubeconfig := `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://127.0.0.1:6443
users:
- name: test
  user:
    token: abc
contexts:
- name: test
  context:
    cluster: test
    user: test
current-context: test
`
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0o600))

	c, cfg, err := BuildKubeClient(path)
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)
	assert.Equal(t, "bearer-token", AuthMethod(cfg))
}

func TestAuthMethod(t *testing.T) {
	assert.Equal(t, "none", AuthMethod(nil))
	assert.Equal(t, "default", AuthMethod(&rest.Config{}))
	assert.Equal(t, "oidc", AuthMethod(&rest.Config{AuthProvider: &clientcmdapi.AuthProviderConfig{Name: "oidc"}}))
	assert.Equal(t, "exec", AuthMethod(&rest.Config{ExecProvider: &clientcmdapi.ExecConfig{}}))
	assert.Equal(t, "cert", AuthMethod(&rest.Config{TLSClientConfig: rest.TLSClientConfig{CertData: []byte("x")}}))
}

// TestGetKubeClient_CallsOnce checks that concurrent callers share one
// initialization result, whatever the environment provides.
func TestGetKubeClient_CallsOnce(t *testing.T) {
	reset := func() {
		clientOnce = sync.Once{}
		cachedClient = nil
		cachedConfig = nil
		clientErr = nil
	}
	reset()
	defer reset()

	const n = 10
	type result struct {
		client Interface
		err    error
	}
	results := make(chan result, n)
	for range n {
		go func() {
			c, _, err := GetKubeClient()
			results <- result{c, err}
		}()
	}

	first := <-results
	for range n - 1 {
		r := <-results
		assert.Equal(t, first.client, r.client)
		assert.Equal(t, first.err, r.err)
	}
}
