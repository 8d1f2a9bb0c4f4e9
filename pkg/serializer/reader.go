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
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/recordpipe/pkg/errors"
)

// FormatFromPath picks a format from a file extension: .json, .yaml/.yml
// or .table/.txt. Anything else is JSON.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".table"), strings.HasSuffix(lower, ".txt"):
		return FormatTable
	default:
		slog.Debug("unknown file extension, defaulting to JSON", "path", path)
		return FormatJSON
	}
}

// Reader decodes JSON or YAML from an io.Reader.
// Close must be called when the Reader was opened from a path.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader over input. Table is write-only and rejected.
// If input is an io.Closer, Close closes it.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if err := readable(format); err != nil {
		return nil, err
	}
	r := &Reader{format: format, input: input}
	if c, ok := input.(io.Closer); ok {
		r.closer = c
	}
	return r, nil
}

// NewFileReader opens a local path or an http(s) URL. Remote content is
// fetched into memory with the default HttpReader.
func NewFileReader(ctx context.Context, format Format, path string) (*Reader, error) {
	if err := readable(format); err != nil {
		return nil, err
	}

	if isURL(path) {
		data, err := NewHttpReader().ReadWithContext(ctx, path)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeUnavailable,
				"failed to fetch remote file", err, map[string]any{"url": path})
		}
		return &Reader{format: format, input: bytes.NewReader(data)}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		code := errors.ErrCodeInternal
		if stderrors.Is(err, os.ErrNotExist) {
			code = errors.ErrCodeNotFound
		}
		return nil, errors.WrapWithContext(code, "failed to open file", err, map[string]any{"path": path})
	}
	return &Reader{format: format, input: file, closer: file}, nil
}

// NewFileReaderAuto is NewFileReader with the format taken from the path.
func NewFileReaderAuto(ctx context.Context, path string) (*Reader, error) {
	return NewFileReader(ctx, FormatFromPath(urlPath(path)), path)
}

// Deserialize decodes the next document into v, which must be a pointer.
func (r *Reader) Deserialize(v any) error {
	if r == nil || r.input == nil {
		return errors.New(errors.ErrCodeInternal, "reader has no input")
	}

	var err error
	switch r.format {
	case FormatJSON:
		err = json.NewDecoder(r.input).Decode(v)
	case FormatYAML:
		err = yaml.NewDecoder(r.input).Decode(v)
	default:
		return errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("format %s does not support deserialization", r.format))
	}
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to decode %s", strings.ToUpper(string(r.format))), err, nil)
	}
	return nil
}

// Close releases the underlying file. It is safe to call more than once and
// on a nil Reader.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromFile reads a local file or URL and decodes it into a new T, detecting
// the format from the extension.
func FromFile[T any](ctx context.Context, path string) (*T, error) {
	rd, err := NewFileReaderAuto(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rd.Close(); cerr != nil {
			slog.Warn("failed to close reader", "path", path, "error", cerr)
		}
	}()

	var out T
	if err := rd.Deserialize(&out); err != nil {
		return nil, err
	}
	slog.Debug("loaded file", "path", path, "format", rd.format)
	return &out, nil
}

func readable(format Format) error {
	switch format {
	case FormatJSON, FormatYAML:
		return nil
	case FormatTable:
		return errors.New(errors.ErrCodeInvalidRequest, "table format does not support deserialization")
	default:
		return errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("unknown format: %s", format))
	}
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// urlPath strips the query from a URL so the extension can be inspected.
func urlPath(path string) string {
	if !isURL(path) {
		return path
	}
	p, _, _ := strings.Cut(path, "?")
	return p
}
