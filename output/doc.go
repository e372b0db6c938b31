// Package output provides formatters for writing batches in various output formats.
//
// This package defines the Formatter interface and provides implementations
// for JSON Lines, CSV and plain text tables. All formatters write a
// *batch.Batch and keep its column order.
//
// # Supported Formats
//
//   - JSON Lines: One JSON object per line (suitable for streaming)
//   - CSV: Comma-separated values with header row
//   - Table: Aligned text table followed by a row count
//
// # Basic Usage
//
// Pick a formatter by name:
//
//	f, err := output.ParseFormat("csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	formatter, err := output.New(f, os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(b); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// Change output destination dynamically:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	formatter.SetOutput(file)
//
// # Type Handling
//
//   - Timestamps are written in RFC 3339 with nanoseconds
//   - Non-finite floats are written as NaN, +Inf and -Inf (quoted in JSON)
//   - Nulls are JSON null, an empty CSV field, or NULL in tables
//   - CSV string fields starting with formula characters are quoted with a
//     leading apostrophe
package output
