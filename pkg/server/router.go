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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NVIDIA/recordpipe/pkg/serializer"
)

var apiRoutes = []string{
	"POST /v1/records",
	"GET /v1/records",
	"GET /v1/records/{id}",
	"POST /v1/compute",
	"GET /v1/tags",
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDefault)

	// system endpoints are not rate limited
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/records", s.withMiddleware(s.handleCreateRecord))
	mux.HandleFunc("GET /v1/records", s.withMiddleware(s.handleListRecords))
	mux.HandleFunc("GET /v1/records/{id}", s.withMiddleware(s.handleGetRecord))
	mux.HandleFunc("POST /v1/compute", s.withMiddleware(s.handleCompute))
	mux.HandleFunc("GET /v1/tags", s.withMiddleware(s.handleTags))

	return mux
}

func (s *Server) handleDefault(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		Ready     bool     `json:"ready"`
		Timestamp string   `json:"timestamp"`
		Routes    []string `json:"routes"`
	}{
		Name:      s.config.Name,
		Version:   s.config.Version,
		Ready:     s.isReady(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Routes:    append(append([]string{}, apiRoutes...), "GET /health", "GET /ready", "GET /metrics"),
	}
	serializer.RespondJSON(w, http.StatusOK, resp)
}
