// Package config loads the YAML configuration shared by the recordpipe CLI
// and service and builds the concrete collaborators it describes.
//
// Example file:
//
//	logLevel: info
//	store:
//	  kind: sqlite          # memory | sqlite | configmap
//	  path: /var/lib/recordpipe/records.db
//	  cacheTTL: 5m          # optional read-through cache
//	retry:
//	  maxAttempts: 4
//	  initialInterval: 100ms
//	  multiplier: 2
//	  jitter: 0.1
//	  attemptTimeout: 10s
//	validation:
//	  basic: true
//	  rules:
//	    - name: area-limit
//	      path: $.result.value
//	      constraint: "<= 10000"
//	  schema: /etc/recordpipe/record.schema.json
//	batch:
//	  concurrency: 4
//	server:
//	  port: 8080
//	  rateLimit: 100
//	  rateLimitBurst: 200
//	tracing:
//	  enabled: true
//	  exporter: stdout
//	  sampleRate: 0.5
//
// Environment variables RECORDPIPE_STORE, RECORDPIPE_SQLITE_PATH,
// RECORDPIPE_TRACE, PORT and LOG_LEVEL override the file.
//
// Build turns a Config into a Runtime: a frozen registry holding the
// built-in computations, the composed validator, the selected store and an
// orchestrator wired to all three.
package config
