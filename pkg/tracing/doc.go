// Package tracing configures the OpenTelemetry tracer provider used by the
// pipeline's spans.
//
// Tracing is off by default. When enabled with the stdout exporter, finished
// spans are printed as indented JSON to stderr (or Config.Writer):
//
//	p, err := tracing.NewProvider(tracing.Config{Enabled: true, Exporter: tracing.ExporterStdout})
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown(context.Background())
//
//	o, err := pipeline.New(reg, v, st, pipeline.WithTracerProvider(p.TracerProvider()))
package tracing
