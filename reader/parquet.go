package reader

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/winframe/batch"
)

// FileColumn is the column added by ReadFiles to record each row's source
// file when a glob matches.
const FileColumn = "_file"

// maxFiles bounds how many files one glob may load.
const maxFiles = 1000

// readBufferRows is how many rows are decoded per ReadRows call.
const readBufferRows = 256

// Reader reads a parquet file into a batch.Batch.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type Reader struct {
	path   string
	file   *os.File
	pqFile *parquet.File
}

// NewReader opens the parquet file at path.
//
// Example:
//
//	r, err := reader.NewReader("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "failed to stat file")
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "failed to open parquet file %s", path)
	}

	return &Reader{
		path:   path,
		file:   file,
		pqFile: pqFile,
	}, nil
}

// Schema returns the parquet file schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// NumRows returns the row count recorded in the file footer.
func (r *Reader) NumRows() int64 {
	return r.pqFile.NumRows()
}

// Fields returns the batch schema ReadBatch produces. Top-level columns that
// do not map onto a batch type (groups, repeated fields, INT96, ...) are
// left out.
func (r *Reader) Fields() []batch.Field {
	cols := r.columns()
	fields := make([]batch.Field, len(cols))
	for i, c := range cols {
		fields[i] = c.field
	}
	return fields
}

// ReadBatch reads every row of the file into a batch. The whole file is held
// in memory.
func (r *Reader) ReadBatch() (*batch.Batch, error) {
	cols := r.columns()
	byLeaf := make(map[int]int, len(cols))
	builders := make([]*batch.ColumnBuilder, len(cols))
	for i, c := range cols {
		byLeaf[c.leaf] = i
		builders[i] = batch.NewColumnBuilder(c.field.Name, c.field.Type).SetNullable(c.field.Nullable)
		builders[i].Grow(int(r.pqFile.NumRows()))
	}

	pr := parquet.NewReader(r.pqFile)
	defer func() { _ = pr.Close() }()

	buf := make([]parquet.Row, readBufferRows)
	rowNum := 0
	for {
		n, err := pr.ReadRows(buf)
		for _, row := range buf[:n] {
			for _, v := range row {
				i, ok := byLeaf[v.Column()]
				if !ok {
					continue
				}
				if err := builders[i].Append(cols[i].convert(v)); err != nil {
					return nil, errors.Wrapf(err, "%s: row %d", r.path, rowNum)
				}
			}
			rowNum++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read rows from %s", r.path)
		}
	}

	out := make([]*batch.Column, len(builders))
	for i, b := range builders {
		out[i] = b.Build()
	}
	return batch.New(out...)
}

// Close releases the file handle. It is safe to call Close multiple times.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadFiles reads the file at pattern, or every file it matches when it
// contains glob wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
//
// Files read through a glob must share a schema, and each row is tagged with
// a FileColumn holding its source path. A single file is returned as is.
func ReadFiles(pattern string) (*batch.Batch, error) {
	if !strings.ContainsAny(pattern, "*?[]") {
		return readFile(pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "invalid glob pattern")
	}
	if len(matches) == 0 {
		return nil, errors.Newf("no files match pattern: %s", pattern)
	}
	if len(matches) > maxFiles {
		return nil, errors.Newf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
	}

	parts := make([]*batch.Batch, 0, len(matches))
	for _, path := range matches {
		b, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if _, exists := b.Column(FileColumn); exists {
			return nil, errors.Newf("%s already has a %s column", path, FileColumn)
		}
		paths := make([]string, b.NumRows())
		for i := range paths {
			paths[i] = path
		}
		if b, err = b.WithColumn(batch.NewStringColumn(FileColumn, paths)); err != nil {
			return nil, err
		}
		parts = append(parts, b)
	}

	out, err := batch.Concat(parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "files matching %s differ in schema", pattern)
	}
	return out, nil
}

func readFile(path string) (*batch.Batch, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	b, readErr := r.ReadBatch()
	closeErr := r.Close()
	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, errors.Wrapf(closeErr, "failed to close %s", path)
	}
	return b, nil
}

// column maps one top-level parquet leaf onto a batch column.
type column struct {
	field   batch.Field
	leaf    int
	convert func(parquet.Value) interface{}
}

func (r *Reader) columns() []column {
	var cols []column
	leaf := 0
	for _, f := range r.pqFile.Schema().Fields() {
		n := countLeaves(f)
		if f.Leaf() && !f.Repeated() {
			if typ, conv, ok := mapLeaf(f); ok {
				cols = append(cols, column{
					field:   batch.Field{Name: f.Name(), Type: typ, Nullable: f.Optional()},
					leaf:    leaf,
					convert: nullable(conv),
				})
			}
		}
		leaf += n
	}
	return cols
}

func countLeaves(f parquet.Field) int {
	if f.Leaf() {
		return 1
	}
	n := 0
	for _, child := range f.Fields() {
		n += countLeaves(child)
	}
	return n
}

func nullable(conv func(parquet.Value) interface{}) func(parquet.Value) interface{} {
	return func(v parquet.Value) interface{} {
		if v.IsNull() {
			return nil
		}
		return conv(v)
	}
}

// mapLeaf picks the batch type and value conversion for a leaf field.
func mapLeaf(f parquet.Field) (batch.Type, func(parquet.Value) interface{}, bool) {
	t := f.Type()
	if t == nil {
		return 0, nil, false
	}
	lt := t.LogicalType()

	switch t.Kind() {
	case parquet.Boolean:
		return batch.Bool, func(v parquet.Value) interface{} { return v.Boolean() }, true

	case parquet.Int32, parquet.Int64:
		raw := func(v parquet.Value) int64 {
			if v.Kind() == parquet.Int32 {
				return int64(v.Int32())
			}
			return v.Int64()
		}
		switch {
		case lt != nil && lt.Timestamp != nil:
			unit := lt.Timestamp.Unit
			return batch.Timestamp, func(v parquet.Value) interface{} {
				n := raw(v)
				switch {
				case unit.Millis != nil:
					return time.UnixMilli(n).UTC()
				case unit.Micros != nil:
					return time.UnixMicro(n).UTC()
				}
				return time.Unix(0, n).UTC()
			}, true
		case lt != nil && lt.Date != nil:
			return batch.Timestamp, func(v parquet.Value) interface{} {
				return time.Unix(raw(v)*86400, 0).UTC()
			}, true
		case lt != nil && lt.Decimal != nil:
			return 0, nil, false
		}
		return batch.Int64, func(v parquet.Value) interface{} { return raw(v) }, true

	case parquet.Float:
		return batch.Float64, func(v parquet.Value) interface{} { return float64(v.Float()) }, true

	case parquet.Double:
		return batch.Float64, func(v parquet.Value) interface{} { return v.Double() }, true

	case parquet.ByteArray:
		if lt != nil && (lt.Decimal != nil || lt.Bson != nil) {
			return 0, nil, false
		}
		return batch.String, func(v parquet.Value) interface{} { return string(v.ByteArray()) }, true
	}
	return 0, nil, false
}
