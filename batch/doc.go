// Package batch provides the in-memory columnar table that window functions
// are evaluated over.
//
// A Batch is an ordered set of Columns of equal length. Each Column has a
// name, a semantic Type and a null mask, and stores its values in a typed
// slice. Batches are immutable: operations such as WithColumn and Head return
// new batches that share column storage with the original.
//
// # Building Columns
//
// Typed constructors cover the common non-null case:
//
//	ids := batch.NewInt64Column("id", []int64{1, 2, 3})
//
// ColumnBuilder and ColumnOf accept loosely typed values, converting Go
// integer and float widths, and treat nil as null:
//
//	score, err := batch.ColumnOf("score", batch.Float64, 1.5, nil, 3)
//
// # Row Access
//
// Column.Value returns nil for null rows and otherwise one of int64, float64,
// string, time.Time or bool. Batch.Rows renders the whole batch as row maps,
// which is the shape the output formatters consume.
package batch
