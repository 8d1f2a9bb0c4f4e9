// Package api wires configuration, the pipeline and the HTTP server into the
// recordpiped service.
//
// # Usage
//
//	func main() {
//	    if err := api.Serve(); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// Serve reads the YAML file named by RECORDPIPE_CONFIG when set, applies the
// environment overrides config.Load supports, builds the runtime and blocks
// until SIGINT or SIGTERM. The store is closed and pending traces are flushed
// on the way out.
//
// Run and NewServer expose the same wiring for callers that already hold a
// Config, such as the CLI's serve command and tests.
//
// Version information is set at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/recordpipe/pkg/api.version=1.0.0'"
package api
