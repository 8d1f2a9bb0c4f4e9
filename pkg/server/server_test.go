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
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/pipeline"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/registry"
	"github.com/NVIDIA/recordpipe/pkg/shapes"
	"github.com/NVIDIA/recordpipe/pkg/store"
	"github.com/NVIDIA/recordpipe/pkg/store/memory"
	"github.com/NVIDIA/recordpipe/pkg/validation"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

// failingStore fails every save with err.
type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Save(context.Context, record.Record) (record.Persisted, error) {
	return record.Persisted{}, f.err
}

func newTestServer(t *testing.T, st store.Store, opts ...Option) *Server {
	t.Helper()
	reg := registry.New()
	require.NoError(t, shapes.RegisterAll(reg))
	reg.Freeze()

	o, err := pipeline.New(reg, validation.Basic(), st, pipeline.WithRetryPolicy(pipeline.RetryPolicy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		Multiplier:      1,
	}))
	require.NoError(t, err)

	s, err := New(o, reg, st, opts...)
	require.NoError(t, err)
	s.SetReady(true)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

const carpet = `{"name":"carpet","quantity":2,"variant":{"tag":"rectangle","length":3,"height":4}}`

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, registry.New(), memory.New())
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestHealthAndReady(t *testing.T) {
	st := memory.New()
	pingErr := error(nil)
	s := newTestServer(t, st, WithReadinessCheck(func(context.Context) error { return pingErr }))
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "").Code)

	pingErr = stderrors.New("database is locked")
	rec := do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "store unavailable", decode[HealthResponse](t, rec).Reason)

	pingErr = nil
	s.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestCreateRecord(t *testing.T) {
	st := memory.New()
	h := newTestServer(t, st).Handler()

	rec := do(t, h, http.MethodPost, "/v1/records", carpet)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[RecordResponse](t, rec)
	assert.Equal(t, pipeline.StatusPersisted, created.Status)
	assert.NotEmpty(t, created.Record.ID)
	require.NotNil(t, created.Record.Result)
	assert.Equal(t, 12.0, created.Record.Result.Value)
	assert.Equal(t, "/v1/records/"+created.Record.ID, rec.Header().Get("Location"))

	rec = do(t, h, http.MethodPost, "/v1/records", carpet)
	require.Equal(t, http.StatusOK, rec.Code)
	dup := decode[RecordResponse](t, rec)
	assert.True(t, dup.Duplicate)
	assert.Equal(t, created.Record.ID, dup.Record.ID)
	assert.Equal(t, 1, st.Len())
}

func TestCreateRecord_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		store      store.Store
		body       string
		headers    []string
		wantStatus int
		wantCode   errors.ErrorCode
	}{
		{
			name:       "rejected",
			store:      memory.New(),
			body:       `{"name":"carpet","quantity":-1,"variant":{"tag":"rectangle","length":3,"height":4}}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unsupported variant",
			store:      memory.New(),
			body:       `{"name":"hex","quantity":1,"variant":{"tag":"hexagon","side":1}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeUnsupportedVariant,
		},
		{
			name:       "malformed body",
			store:      memory.New(),
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeInvalidRequest,
		},
		{
			name:       "conflicting idempotency keys",
			store:      memory.New(),
			body:       `{"key":"a","name":"carpet","quantity":1,"variant":{"tag":"square","side":1}}`,
			headers:    []string{HeaderIdempotencyKey, "b"},
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeInvalidRequest,
		},
		{
			name:       "retryable store failure",
			store:      failingStore{Store: memory.New(), err: store.Retryable("save", stderrors.New("busy"))},
			body:       carpet,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   errors.ErrCodePersistence,
		},
		{
			name:       "fatal store failure",
			store:      failingStore{Store: memory.New(), err: store.Fatal("save", stderrors.New("disk full"))},
			body:       carpet,
			wantStatus: http.StatusInternalServerError,
			wantCode:   errors.ErrCodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.store).Handler()
			rec := do(t, h, http.MethodPost, "/v1/records", tt.body, tt.headers...)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusUnprocessableEntity {
				rej := decode[RejectionResponse](t, rec)
				assert.Equal(t, pipeline.StatusRejected, rej.Status)
				require.Len(t, rej.Violations, 1)
				assert.Equal(t, "quantity", rej.Violations[0].Field)
				return
			}

			er := decode[ErrorResponse](t, rec)
			assert.Equal(t, string(tt.wantCode), er.Code)
			assert.NotEmpty(t, er.RequestID)
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.True(t, er.Retryable)
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
				assert.Equal(t, "persist", er.Details["stage"])
				assert.EqualValues(t, 2, er.Details["attempts"])
			}
		})
	}
}

func TestCreateRecord_IdempotencyKeyHeader(t *testing.T) {
	st := memory.New()
	h := newTestServer(t, st).Handler()
	key := uuid.New().String()

	first := do(t, h, http.MethodPost, "/v1/records", carpet, HeaderIdempotencyKey, key)
	require.Equal(t, http.StatusCreated, first.Code)

	// a different body under the same key resolves to the first entry
	other := `{"name":"rug","quantity":5,"variant":{"tag":"square","side":2}}`
	second := do(t, h, http.MethodPost, "/v1/records", other, HeaderIdempotencyKey, key)
	require.Equal(t, http.StatusOK, second.Code)

	a, b := decode[RecordResponse](t, first), decode[RecordResponse](t, second)
	assert.Equal(t, a.Record.ID, b.Record.ID)
	assert.Equal(t, "carpet", b.Record.Name)
	assert.Equal(t, key, b.Record.Key)
	assert.Equal(t, 1, st.Len())
}

func TestGetAndListRecords(t *testing.T) {
	h := newTestServer(t, memory.New()).Handler()

	var ids []string
	for _, side := range []string{"1", "2", "3"} {
		rec := do(t, h, http.MethodPost, "/v1/records",
			`{"name":"tile","quantity":1,"variant":{"tag":"square","side":`+side+`}}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[RecordResponse](t, rec).Record.ID)
	}

	rec := do(t, h, http.MethodGet, "/v1/records/"+ids[1], "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[record.Record](t, rec)
	assert.Equal(t, ids[1], got.ID)
	assert.Equal(t, 4.0, got.Result.Value)

	rec = do(t, h, http.MethodGet, "/v1/records/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(errors.ErrCodeNotFound), decode[ErrorResponse](t, rec).Code)

	list := decode[ListResponse](t, do(t, h, http.MethodGet, "/v1/records", ""))
	assert.Equal(t, 3, list.Count)
	assert.False(t, list.More)

	list = decode[ListResponse](t, do(t, h, http.MethodGet, "/v1/records?limit=2", ""))
	assert.Equal(t, 2, list.Count)
	assert.True(t, list.More)
	assert.Equal(t, ids[:2], []string{list.Records[0].ID, list.Records[1].ID})

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/records?limit=0", "").Code)
}

func TestCompute(t *testing.T) {
	h := newTestServer(t, memory.New()).Handler()

	rec := do(t, h, http.MethodPost, "/v1/compute", `{"tag":"rectangle","length":3,"height":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.Equal(t, 12.0, res["value"])

	rec = do(t, h, http.MethodPost, "/v1/compute", `{"tag":"hexagon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/compute", `{"length":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTags(t *testing.T) {
	h := newTestServer(t, memory.New()).Handler()
	tags := decode[[]TagInfo](t, do(t, h, http.MethodGet, "/v1/tags", ""))

	require.Len(t, tags, len(shapes.Computations()))
	assert.Equal(t, TagInfo{Tag: shapes.TagCircle, DisplayName: "Circle"}, tags[0])
}

func TestDescribeTags(t *testing.T) {
	got := DescribeTags([]variant.Tag{"right_triangle", "cost-center"})
	assert.Equal(t, "Right Triangle", got[0].DisplayName)
	assert.Equal(t, "Cost Center", got[1].DisplayName)
}

func TestRateLimit(t *testing.T) {
	cfg := NewConfig()
	cfg.RateLimit = 1
	cfg.RateLimitBurst = 1
	h := newTestServer(t, memory.New(), WithConfig(cfg)).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/tags", "").Code)
	rec := do(t, h, http.MethodGet, "/v1/tags", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// system endpoints are not limited
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, memory.New()).Handler()

	id := uuid.New().String()
	rec := do(t, h, http.MethodGet, "/v1/tags", "", "X-Request-Id", id)
	assert.Equal(t, id, rec.Header().Get("X-Request-Id"))

	rec = do(t, h, http.MethodGet, "/v1/tags", "", "X-Request-Id", "not-a-uuid")
	_, err := uuid.Parse(rec.Header().Get("X-Request-Id"))
	assert.NoError(t, err)
}

func TestAPIVersionHeader(t *testing.T) {
	h := newTestServer(t, memory.New()).Handler()
	rec := do(t, h, http.MethodGet, "/v1/tags", "", "Accept", "application/vnd.nvidia.recordpipe.v9+json")
	assert.Equal(t, DefaultAPIVersion, rec.Header().Get("X-API-Version"))
}

func TestPanicRecovery(t *testing.T) {
	s := newTestServer(t, memory.New())
	handler := s.requestIDMiddleware(s.panicRecoveryMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/v1/tags", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(errors.ErrCodeInternal), decode[ErrorResponse](t, rec).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, memory.New()).Handler()
	do(t, h, http.MethodGet, "/v1/tags", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `recordpipe_http_requests_total{method="GET",route="GET /v1/tags",status="200"}`)
}

func TestRootRoute(t *testing.T) {
	s := newTestServer(t, memory.New(), WithName("recordpiped-test"), WithVersion("1.2.3"))
	rec := do(t, s.Handler(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "recordpiped-test", body["name"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, true, body["ready"])
}

func TestStartAndShutdown(t *testing.T) {
	cfg := NewConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = 0
	s := newTestServer(t, memory.New(), WithConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, s.isReady())
}

func TestBodyTooLarge(t *testing.T) {
	cfg := NewConfig()
	cfg.MaxBodyBytes = 16
	h := newTestServer(t, memory.New(), WithConfig(cfg)).Handler()

	rec := do(t, h, http.MethodPost, "/v1/records", carpet)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
