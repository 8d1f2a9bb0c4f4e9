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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
	"github.com/NVIDIA/recordpipe/pkg/errors"
)

// RespondJSON writes data as a JSON response. The body is encoded before
// headers are sent so an encoding failure never yields a partial response.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("json encoding failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("response write failed", "error", err)
	}
}

// HttpReaderUserAgent is sent with every request.
const HttpReaderUserAgent = "recordpipe/1.0"

// maxRemoteFileSize caps how much of a remote input file is read.
const maxRemoteFileSize = 32 << 20

// HttpReaderOption configures an HttpReader.
type HttpReaderOption func(*HttpReader)

// HttpReader fetches remote input files.
type HttpReader struct {
	UserAgent string
	Client    *http.Client
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) HttpReaderOption {
	return func(r *HttpReader) {
		r.UserAgent = ua
	}
}

// WithClient replaces the default client, e.g. with httptest's.
func WithClient(c *http.Client) HttpReaderOption {
	return func(r *HttpReader) {
		if c != nil {
			r.Client = c
		}
	}
}

// NewHttpReader creates an HttpReader with pooled connections and bounded
// timeouts.
func NewHttpReader(opts ...HttpReaderOption) *HttpReader {
	r := &HttpReader{
		UserAgent: HttpReaderUserAgent,
		Client: &http.Client{
			Timeout: defaults.HTTPClientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   defaults.HTTPConnectTimeout,
					KeepAlive: defaults.HTTPKeepAlive,
				}).DialContext,
				TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
				ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
				IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
				MaxIdleConns:          10,
				ForceAttemptHTTP2:     true,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadWithContext fetches url and returns the body. Non-200 responses are
// errors.
func (r *HttpReader) ReadWithContext(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to create request", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, errors.NewRetryable(errors.ErrCodeUnavailable, "http request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewWithContext(errors.ErrCodeUnavailable,
			fmt.Sprintf("failed to fetch data: status %s", resp.Status),
			map[string]any{"url": url, "status": resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteFileSize))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to read response body", err)
	}
	return data, nil
}
