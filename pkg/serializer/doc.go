// Package serializer writes command output as JSON, YAML or a table and reads
// JSON or YAML input from files and URLs.
//
// Writing:
//
//	w, err := serializer.NewFileWriterOrStdout(serializer.FormatYAML, outputPath)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	return w.Serialize(ctx, result)
//
// Values implementing Tabular print as columns in the table format; anything
// else is flattened into dotted FIELD/VALUE pairs using json field names.
//
// Reading:
//
//	records, err := serializer.FromFile[[]record.Record](ctx, "records.yaml")
//
// The format is taken from the extension. Paths starting with http:// or
// https:// are fetched with HttpReader.
//
// For HTTP handlers, RespondJSON encodes before writing headers so a failed
// encoding never produces a partial response.
package serializer
