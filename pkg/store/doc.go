// Package store defines the persistence port and the helpers adapters share.
//
// Adapters live in subpackages:
//
//   - memory: process-local map, for tests and the default CLI run
//   - sqlite: SQLite file via database/sql
//   - configmap: one Kubernetes ConfigMap per record
//   - cached: read-through cache in front of any other Store
//
// Every adapter runs the shared contract suite in storetest.
package store
