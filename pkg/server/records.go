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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/pipeline"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/serializer"
	"github.com/NVIDIA/recordpipe/pkg/validation"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

// HeaderIdempotencyKey carries a client-chosen key for record submission.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// RecordResponse is returned for a persisted record.
type RecordResponse struct {
	Status    pipeline.Status `json:"status"`
	Record    record.Record   `json:"record"`
	StoredAt  time.Time       `json:"storedAt"`
	Duplicate bool            `json:"duplicate"`
}

// RejectionResponse is returned with 422 when validation rejects a record.
type RejectionResponse struct {
	Status     pipeline.Status        `json:"status"`
	Record     record.Record          `json:"record"`
	Violations []validation.Violation `json:"violations"`
}

// ListResponse is returned by GET /v1/records.
type ListResponse struct {
	Records []record.Record `json:"records"`
	Count   int             `json:"count"`
	More    bool            `json:"more"`
}

// TagInfo describes one registered computation.
type TagInfo struct {
	Tag         variant.Tag `json:"tag"`
	DisplayName string      `json:"displayName"`
}

// handleCreateRecord runs a record through the pipeline.
//
//	201 persisted, 200 duplicate, 422 rejected, 400 invalid or unsupported,
//	503 retryable failure, 500 other failures
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var rec record.Record
	if !s.decodeBody(w, r, &rec) {
		return
	}

	if key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)); key != "" {
		if rec.Key != "" && rec.Key != key {
			WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
				"idempotency key in header and body differ", false,
				map[string]any{"header": key, "body": rec.Key})
			return
		}
		rec.Key = key
	}
	// identity is assigned by the store
	rec.ID = ""
	rec.Result = nil

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RecordTimeout)
	defer cancel()

	res := s.orchestrator.Process(ctx, rec)
	switch res.Status {
	case pipeline.StatusPersisted:
		status := http.StatusCreated
		if res.Persisted.Duplicate {
			status = http.StatusOK
		}
		w.Header().Set("Location", "/v1/records/"+res.Persisted.ID())
		serializer.RespondJSON(w, status, RecordResponse{
			Status:    res.Status,
			Record:    res.Persisted.Record,
			StoredAt:  res.Persisted.StoredAt,
			Duplicate: res.Persisted.Duplicate,
		})

	case pipeline.StatusRejected:
		serializer.RespondJSON(w, http.StatusUnprocessableEntity, RejectionResponse{
			Status:     res.Status,
			Record:     res.Rejection.Record,
			Violations: res.Rejection.Violations,
		})

	default:
		f := res.Failure
		slog.Debug("record submission failed",
			"requestID", r.Context().Value(contextKeyRequestID),
			"stage", f.Stage,
			"code", f.Code,
			"attempts", f.Attempts)
		WriteErrorFromErr(w, r, f.Err, map[string]any{
			"stage":    string(f.Stage),
			"attempts": f.Attempts,
		})
	}
}

// handleListRecords returns stored records in store order, up to ?limit.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
				fmt.Sprintf("limit must be between 1 and %d", maxListLimit), false,
				map[string]any{"limit": v})
			return
		}
		limit = n
	}

	resp := ListResponse{Records: []record.Record{}}
	for rec, err := range s.store.FindAll(r.Context()) {
		if err != nil {
			WriteErrorFromErr(w, r, err, nil)
			return
		}
		if len(resp.Records) == limit {
			resp.More = true
			break
		}
		resp.Records = append(resp.Records, rec)
	}
	resp.Count = len(resp.Records)
	serializer.RespondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.store.Find(r.Context(), id)
	if err != nil {
		WriteErrorFromErr(w, r, err, map[string]any{"id": id})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, rec)
}

// handleCompute computes a variant without validating or storing anything.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var v variant.Variant
	if !s.decodeBody(w, r, &v) {
		return
	}

	res, err := s.catalog.Compute(v)
	if err != nil {
		WriteErrorFromErr(w, r, err, nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, res)
}

func (s *Server) handleTags(w http.ResponseWriter, _ *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, DescribeTags(s.catalog.Tags()))
}

// DescribeTags pairs each tag with a title-cased display name.
func DescribeTags(tags []variant.Tag) []TagInfo {
	caser := cases.Title(language.English)
	out := make([]TagInfo, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagInfo{
			Tag:         t,
			DisplayName: caser.String(strings.NewReplacer("_", " ", "-", " ").Replace(string(t))),
		})
	}
	return out
}

// decodeBody reads one JSON document into v, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"invalid request body", false, map[string]any{"error": err.Error()})
		return false
	}
	return true
}
