package batch

import (
	"github.com/cockroachdb/errors"
)

// Batch is an immutable set of equally long columns. Row identity is the
// integer index in [0, NumRows).
type Batch struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New assembles a batch. Columns must have distinct names and equal lengths.
func New(cols ...*Column) (*Batch, error) {
	b := &Batch{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c == nil {
			return nil, errors.Newf("column %d is nil", i)
		}
		if c.Name() == "" {
			return nil, errors.Newf("column %d has no name", i)
		}
		if _, dup := b.index[c.Name()]; dup {
			return nil, errors.Newf("duplicate column %q", c.Name())
		}
		if i == 0 {
			b.rows = c.Len()
		} else if c.Len() != b.rows {
			return nil, errors.Newf("column %q has %d rows, want %d", c.Name(), c.Len(), b.rows)
		}
		b.index[c.Name()] = len(b.cols)
		b.cols = append(b.cols, c)
	}
	return b, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(cols ...*Column) *Batch {
	b, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return b
}

// NumRows returns the number of rows.
func (b *Batch) NumRows() int { return b.rows }

// NumColumns returns the number of columns.
func (b *Batch) NumColumns() int { return len(b.cols) }

// Column looks a column up by name.
func (b *Batch) Column(name string) (*Column, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.cols[i], true
}

// ColumnAt returns the i-th column.
func (b *Batch) ColumnAt(i int) *Column { return b.cols[i] }

// Names returns the column names in order.
func (b *Batch) Names() []string {
	names := make([]string, len(b.cols))
	for i, c := range b.cols {
		names[i] = c.Name()
	}
	return names
}

// Schema returns the field list of the batch.
func (b *Batch) Schema() []Field {
	fields := make([]Field, len(b.cols))
	for i, c := range b.cols {
		fields[i] = c.Field()
	}
	return fields
}

// WithColumn returns a new batch with c appended. The receiver is unchanged.
func (b *Batch) WithColumn(c *Column) (*Batch, error) {
	if len(b.cols) > 0 && c.Len() != b.rows {
		return nil, errors.Newf("column %q has %d rows, want %d", c.Name(), c.Len(), b.rows)
	}
	cols := make([]*Column, 0, len(b.cols)+1)
	cols = append(cols, b.cols...)
	cols = append(cols, c)
	return New(cols...)
}

// Head returns a batch holding at most the first n rows.
func (b *Batch) Head(n int) *Batch {
	if n < 0 || n >= b.rows {
		return b
	}
	cols := make([]*Column, len(b.cols))
	for i, c := range b.cols {
		cols[i] = c.Head(n)
	}
	return MustNew(cols...)
}

// Rows renders the batch as one map per row, keyed by column name.
func (b *Batch) Rows() []map[string]interface{} {
	rows := make([]map[string]interface{}, b.rows)
	for i := range rows {
		row := make(map[string]interface{}, len(b.cols))
		for _, c := range b.cols {
			row[c.Name()] = c.Value(i)
		}
		rows[i] = row
	}
	return rows
}

// FromRows builds a batch from row maps using the given schema. Missing keys
// are nulls; keys not in the schema are ignored.
func FromRows(rows []map[string]interface{}, schema []Field) (*Batch, error) {
	builders := make([]*ColumnBuilder, len(schema))
	for i, f := range schema {
		builders[i] = NewColumnBuilder(f.Name, f.Type).SetNullable(f.Nullable)
		builders[i].Grow(len(rows))
	}
	for r, row := range rows {
		for i, f := range schema {
			if err := builders[i].Append(row[f.Name]); err != nil {
				return nil, errors.Wrapf(err, "row %d", r)
			}
		}
	}
	cols := make([]*Column, len(builders))
	for i, bld := range builders {
		cols[i] = bld.Build()
	}
	return New(cols...)
}

// Concat stacks batches that share a schema, names and types in the same
// order. A column is nullable in the result if it is nullable in any input.
func Concat(bs ...*Batch) (*Batch, error) {
	if len(bs) == 0 {
		return New()
	}
	first := bs[0].Schema()
	total := 0
	for i, b := range bs {
		schema := b.Schema()
		if len(schema) != len(first) {
			return nil, errors.Newf("batch %d has %d columns, want %d", i, len(schema), len(first))
		}
		for j, f := range schema {
			if f.Name != first[j].Name || f.Type != first[j].Type {
				return nil, errors.Newf("batch %d column %d is %s %s, want %s %s",
					i, j, f.Name, f.Type, first[j].Name, first[j].Type)
			}
		}
		total += b.rows
	}

	cols := make([]*Column, len(first))
	for j, f := range first {
		bld := NewColumnBuilder(f.Name, f.Type)
		bld.Grow(total)
		for _, b := range bs {
			c := b.cols[j]
			if c.Nullable() {
				bld.SetNullable(true)
			}
			for r := 0; r < c.Len(); r++ {
				if err := bld.Append(c.Value(r)); err != nil {
					return nil, err
				}
			}
		}
		cols[j] = bld.Build()
	}
	return New(cols...)
}
