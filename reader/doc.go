// Package reader loads Apache Parquet files into batches.
//
// This package offers a small API for turning parquet files into
// batch.Batch values that the window engine can evaluate. It supports both
// single-file and multi-file (glob pattern) reads.
//
// # Basic Usage
//
// Reading a single parquet file:
//
//	r, err := reader.NewReader("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	b, err := r.ReadBatch()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Type Mapping
//
// Top-level leaf columns map onto batch types:
//   - BOOLEAN becomes BOOLEAN
//   - INT32 and INT64 become INT64
//   - FLOAT and DOUBLE become FLOAT64
//   - BYTE_ARRAY becomes STRING
//   - INT32/INT64 annotated as TIMESTAMP or DATE become TIMESTAMP (UTC)
//
// Optional columns become nullable. Groups, repeated fields, decimals and
// INT96 are skipped; ExtractSchemaInfo lists them as UNSUPPORTED.
//
// # Multi-file Operations
//
// Reading multiple files using glob patterns:
//
//	b, err := reader.ReadFiles("data/*.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Matching files must share a schema. Each row gets a "_file" column with
// its source path.
//
// # Resource Management
//
// Always call Close() when done reading to release file handles.
//
// The package uses github.com/parquet-go/parquet-go for the underlying
// parquet file operations.
package reader
