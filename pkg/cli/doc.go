// Package cli implements the recordpipe command-line interface.
//
// # Commands
//
// process - Run a batch of records through the pipeline:
//
//	recordpipe process --input records.yaml [--concurrency 8] [--fail-on-reject]
//
// Computes, validates and persists each record and writes one outcome per
// record in input order, followed by counts in the summary. Exits 1 when a
// record failed and, with --fail-on-reject, 2 when a record was rejected.
//
// validate - Dry run of the compute and validate stages:
//
//	recordpipe validate --input records.yaml [--fail-on-error]
//
// compute - Compute one variant:
//
//	recordpipe compute --tag rectangle --field length=3 --field height=4
//
// tags - List the registered variant tags.
//
// get, list - Read persisted records from the configured store:
//
//	recordpipe list --db records.db -t table
//	recordpipe get --db records.db --id <id>
//
// serve - Run the HTTP service with the same configuration.
//
// # Global Flags
//
//	--config, -c   YAML configuration file (env RECORDPIPE_CONFIG)
//	--log-level    debug, info, warn, error (env LOG_LEVEL)
//	--trace        Export pipeline spans to stderr
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// Commands that produce output accept --output/-o (default stdout) and
// --format/-t (yaml, json or table; default yaml). Commands that touch the
// store accept --store and --db to override the configured store.
//
// # Output Formats
//
// YAML and JSON encode the full result. Table prints one row per record and
// is meant for terminals.
package cli
