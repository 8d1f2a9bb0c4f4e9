// Package logging provides structured logging setup for recordpipe binaries.
//
// # Overview
//
// Binaries call SetDefaultStructuredLogger (or the WithLevel variant) once
// at startup; library packages then log through the slog default logger and
// never construct their own handlers. Output is JSON on stderr with the
// module and version attached to every record. Debug level adds source
// locations.
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("recordpipe", version)
//	    slog.Info("processing batch", "records", len(records))
//	}
//
// Explicit level, typically from a --log-level flag:
//
//	logging.SetDefaultStructuredLoggerWithLevel("recordpiped", version, "debug")
//
// # Environment Configuration
//
// LOG_LEVEL selects the level when no explicit level is given:
//
//	LOG_LEVEL=debug recordpipe process --input records.yaml
//
// Supported values (case-insensitive): debug, info (default), warn/warning, error.
//
// # Conventions
//
//   - slog.Debug for per-stage pipeline progress
//   - slog.Info for batch and server lifecycle
//   - slog.Warn for retried persistence attempts
//   - slog.Error for failures that end a command
package logging
