// Package header provides the document header the CLI puts on its reports.
//
// Reports written to files outlive the command that produced them, so each
// one starts with its kind, schema version and creation metadata:
//
//	kind: BatchReport
//	apiVersion: recordpipe.nvidia.com/v1alpha1
//	metadata:
//	  timestamp: "2025-06-01T12:00:00Z"
//	  version: v0.4.0
//	  source: records.yaml
//	summary:
//	  total: 2
//	  ...
//
// Report types embed Header inline so its fields sit at the top level in
// both JSON and YAML.
package header
