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

package serializer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NVIDIA/recordpipe/pkg/errors"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if got["id"] != "abc" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestRespondJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("Content-Type") == "application/json" {
		t.Error("content type should not be JSON after an encoding failure")
	}
}

func TestHttpReader_Read(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	r := NewHttpReader(WithUserAgent("tester"), WithClient(srv.Client()))

	data, err := r.ReadWithContext(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("ReadWithContext: %v", err)
	}
	if string(data) != "tester" {
		t.Errorf("body = %q", data)
	}

	_, err = r.ReadWithContext(context.Background(), srv.URL+"/fail")
	if !errors.HasCode(err, errors.ErrCodeUnavailable) {
		t.Errorf("expected UNAVAILABLE, got %v", err)
	}

	_, err = r.ReadWithContext(context.Background(), "")
	if !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestHttpReader_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHttpReader(WithClient(srv.Client())).ReadWithContext(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected error for canceled request")
	}
	if !errors.IsRetryable(err) {
		t.Errorf("transport failures should be retryable: %v", err)
	}
}
