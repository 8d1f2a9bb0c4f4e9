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
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/serializer"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes an ErrorResponse carrying the request ID.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code errors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	if retryable && statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr maps err's code to a status and writes it. Context from a
// StructuredError is merged into details.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, details map[string]any) {
	var se *errors.StructuredError
	if stderrors.As(err, &se) && len(se.Context) > 0 {
		merged := make(map[string]any, len(se.Context)+len(details))
		for k, v := range se.Context {
			merged[k] = v
		}
		for k, v := range details {
			merged[k] = v
		}
		details = merged
	}

	retryable := errors.IsRetryable(err)
	WriteError(w, r, statusFor(err), errors.CodeOf(err), err.Error(), retryable, details)
}

func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidRequest, errors.ErrCodeUnsupportedVariant:
		return http.StatusBadRequest
	case errors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case errors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout, errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	}
	if errors.IsRetryable(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
