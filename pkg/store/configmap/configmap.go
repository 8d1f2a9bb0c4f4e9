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

package configmap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"iter"
	"log/slog"
	"maps"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/recordpipe/pkg/defaults"
	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/store"
)

const (
	// DataKey holds the record JSON inside the ConfigMap.
	DataKey = "record.json"

	// AnnotationKey holds the idempotency key the name was derived from.
	AnnotationKey = "recordpipe.nvidia.com/idempotency-key"

	// AnnotationStoredAt holds the RFC 3339 time of the first write.
	AnnotationStoredAt = "recordpipe.nvidia.com/stored-at"

	// namePrefix plus 40 hex chars stays well inside the 253 char limit.
	namePrefix = "record-"
	hashChars  = 40
)

// Labels set on every record ConfigMap. FindAll selects on them.
var Labels = map[string]string{
	"app.kubernetes.io/name":      "recordpipe",
	"app.kubernetes.io/component": "record",
}

// Store keeps one ConfigMap per record in a single namespace.
//
// The ConfigMap name is derived from the record's idempotency key, so the API
// server's name uniqueness de-duplicates concurrent saves of the same record.
type Store struct {
	client    kubernetes.Interface
	namespace string
	pageSize  int64
	selector  string
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the List page size used by FindAll.
func WithPageSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New returns a Store writing to namespace.
func New(client kubernetes.Interface, namespace string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "kubernetes client cannot be nil")
	}
	if namespace == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "namespace cannot be empty")
	}

	s := &Store{
		client:    client,
		namespace: namespace,
		pageSize:  defaults.StoreListPageSize,
		selector:  metav1.FormatLabelSelector(metav1.SetAsLabelSelector(Labels)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NameFor returns the ConfigMap name used for an idempotency key.
func NameFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return namePrefix + hex.EncodeToString(sum[:])[:hashChars]
}

// Save creates the record's ConfigMap. If it already exists the stored record
// is returned as a duplicate.
func (s *Store) Save(ctx context.Context, r record.Record) (record.Persisted, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	key := r.IdempotencyKey()
	name := NameFor(key)
	rec := r.WithID(name)
	storedAt := time.Now().UTC()

	body, err := json.Marshal(rec)
	if err != nil {
		return record.Persisted{}, store.Fatal("encode record", err)
	}

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: s.namespace,
			Labels:    maps.Clone(Labels),
			Annotations: map[string]string{
				AnnotationKey:      key,
				AnnotationStoredAt: storedAt.Format(time.RFC3339Nano),
			},
		},
		Data: map[string]string{DataKey: string(body)},
	}

	_, err = s.client.CoreV1().ConfigMaps(s.namespace).Create(ctx, cm, metav1.CreateOptions{})
	switch {
	case err == nil:
		slog.Debug("record configmap created", "namespace", s.namespace, "name", name)
		return record.Persisted{Record: rec, StoredAt: storedAt}, nil
	case apierrors.IsAlreadyExists(err):
		existing, err := s.get(ctx, name)
		if err != nil {
			if store.IsNotFound(err) {
				// deleted between create and get; the next attempt can recreate it
				return record.Persisted{}, store.Retryable("save", err)
			}
			return record.Persisted{}, err
		}
		existing.Duplicate = true
		return existing, nil
	default:
		return record.Persisted{}, classify("save", err)
	}
}

// Find returns the record stored under id.
func (s *Store) Find(ctx context.Context, id string) (record.Record, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return record.Record{}, err
	}
	return p.Record, nil
}

func (s *Store) get(ctx context.Context, name string) (record.Persisted, error) {
	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return record.Persisted{}, store.NotFound(name)
		}
		return record.Persisted{}, classify("find", err)
	}
	if !owned(cm) {
		return record.Persisted{}, store.NotFound(name)
	}
	return decode(cm)
}

// FindAll lists record ConfigMaps page by page, following continue tokens.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		opts := metav1.ListOptions{LabelSelector: s.selector, Limit: s.pageSize}
		for {
			list, err := s.client.CoreV1().ConfigMaps(s.namespace).List(ctx, opts)
			if err != nil {
				yield(record.Record{}, classify("find all", err))
				return
			}
			for i := range list.Items {
				p, err := decode(&list.Items[i])
				if !yield(p.Record, err) || err != nil {
					return
				}
			}
			if list.Continue == "" {
				return
			}
			opts.Continue = list.Continue
		}
	}
}

func owned(cm *corev1.ConfigMap) bool {
	for k, v := range Labels {
		if cm.Labels[k] != v {
			return false
		}
	}
	return true
}

func decode(cm *corev1.ConfigMap) (record.Persisted, error) {
	body, ok := cm.Data[DataKey]
	if !ok {
		return record.Persisted{}, store.Fatal("decode record",
			errors.NewWithContext(errors.ErrCodeInternal, "configmap has no record data",
				map[string]any{"name": cm.Name}))
	}

	var rec record.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return record.Persisted{}, store.Fatal("decode record", err)
	}

	storedAt := cm.CreationTimestamp.UTC()
	if ts, ok := cm.Annotations[AnnotationStoredAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			storedAt = t
		}
	}
	return record.Persisted{Record: rec, StoredAt: storedAt}, nil
}

// classify maps API errors onto the persistence error classes. Conflicts,
// throttling, server timeouts and unavailability are transient.
func classify(op string, err error) error {
	switch {
	case apierrors.IsConflict(err),
		apierrors.IsServerTimeout(err),
		apierrors.IsTimeout(err),
		apierrors.IsTooManyRequests(err),
		apierrors.IsServiceUnavailable(err),
		apierrors.IsInternalError(err),
		stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, context.Canceled):
		return store.Retryable(op, err)
	default:
		return store.Fatal(op, err)
	}
}
