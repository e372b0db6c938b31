package batch

import (
	"cmp"
	"encoding/binary"
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

// Column is a named, typed sequence of values aligned by row index.
//
// Values are held in a typed slice selected by the column type; nulls are
// tracked in a separate mask that is nil when the column has none. A Column
// is never modified after Build.
type Column struct {
	name     string
	typ      Type
	nullable bool
	length   int

	ints   []int64
	floats []float64
	strs   []string
	times  []time.Time
	bools  []bool
	nulls  []bool
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column's semantic type.
func (c *Column) Type() Type { return c.typ }

// Nullable reports whether the column was declared nullable or holds nulls.
func (c *Column) Nullable() bool { return c.nullable }

// Len returns the number of rows.
func (c *Column) Len() int { return c.length }

// Field returns the column's schema entry.
func (c *Column) Field() Field {
	return Field{Name: c.name, Type: c.typ, Nullable: c.nullable}
}

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.nulls != nil && c.nulls[i]
}

// Value returns row i as nil, int64, float64, string, time.Time or bool.
func (c *Column) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	switch c.typ {
	case Int64:
		return c.ints[i]
	case Float64:
		return c.floats[i]
	case String:
		return c.strs[i]
	case Timestamp:
		return c.times[i]
	case Bool:
		return c.bools[i]
	}
	return nil
}

// Values returns every row as produced by Value.
func (c *Column) Values() []interface{} {
	out := make([]interface{}, c.length)
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// Int64At returns row i of an Int64 column. The result is undefined for null rows.
func (c *Column) Int64At(i int) int64 { return c.ints[i] }

// Float64At returns row i of a numeric column as float64.
func (c *Column) Float64At(i int) float64 {
	if c.typ == Int64 {
		return float64(c.ints[i])
	}
	return c.floats[i]
}

// StringAt returns row i of a String column.
func (c *Column) StringAt(i int) string { return c.strs[i] }

// TimeAt returns row i of a Timestamp column.
func (c *Column) TimeAt(i int) time.Time { return c.times[i] }

// BoolAt returns row i of a Bool column.
func (c *Column) BoolAt(i int) bool { return c.bools[i] }

// Compare orders two non-null rows of the column.
func (c *Column) Compare(i, j int) int {
	switch c.typ {
	case Int64:
		return cmp.Compare(c.ints[i], c.ints[j])
	case Float64:
		return cmp.Compare(c.floats[i], c.floats[j])
	case String:
		return cmp.Compare(c.strs[i], c.strs[j])
	case Timestamp:
		return compareTime(c.times[i], c.times[j])
	case Bool:
		return compareBool(c.bools[i], c.bools[j])
	}
	return 0
}

// Equal reports whether rows i and j hold the same value. Two nulls are equal.
func (c *Column) Equal(i, j int) bool {
	ni, nj := c.IsNull(i), c.IsNull(j)
	if ni || nj {
		return ni && nj
	}
	return c.Compare(i, j) == 0
}

const (
	keyNull byte = iota
	keyValue
)

// AppendKey appends an encoding of row i to dst such that two rows encode to
// the same bytes exactly when Equal reports them equal.
func (c *Column) AppendKey(dst []byte, i int) []byte {
	if c.IsNull(i) {
		return append(dst, keyNull)
	}
	dst = append(dst, keyValue)
	switch c.typ {
	case Int64:
		dst = binary.BigEndian.AppendUint64(dst, uint64(c.ints[i]))
	case Float64:
		f := c.floats[i]
		switch {
		case math.IsNaN(f):
			f = math.NaN()
		case f == 0:
			f = 0 // folds -0 into +0
		}
		dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(f))
	case String:
		dst = binary.AppendUvarint(dst, uint64(len(c.strs[i])))
		dst = append(dst, c.strs[i]...)
	case Timestamp:
		t := c.times[i]
		dst = binary.BigEndian.AppendUint64(dst, uint64(t.Unix()))
		dst = binary.BigEndian.AppendUint32(dst, uint32(t.Nanosecond()))
	case Bool:
		if c.bools[i] {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}

// Head returns a column holding the first n rows.
func (c *Column) Head(n int) *Column {
	if n >= c.length {
		return c
	}
	cp := *c
	cp.length = n
	switch c.typ {
	case Int64:
		cp.ints = c.ints[:n]
	case Float64:
		cp.floats = c.floats[:n]
	case String:
		cp.strs = c.strs[:n]
	case Timestamp:
		cp.times = c.times[:n]
	case Bool:
		cp.bools = c.bools[:n]
	}
	if c.nulls != nil {
		cp.nulls = c.nulls[:n]
	}
	return &cp
}

// ColumnBuilder accumulates values for a new Column.
type ColumnBuilder struct {
	col Column
}

// NewColumnBuilder starts a column of the given name and type.
func NewColumnBuilder(name string, typ Type) *ColumnBuilder {
	return &ColumnBuilder{col: Column{name: name, typ: typ}}
}

// SetNullable marks the column nullable even if no nulls are appended.
func (b *ColumnBuilder) SetNullable(nullable bool) *ColumnBuilder {
	b.col.nullable = nullable
	return b
}

// Grow reserves room for n more rows.
func (b *ColumnBuilder) Grow(n int) {
	c := &b.col
	switch c.typ {
	case Int64:
		c.ints = growSlice(c.ints, n)
	case Float64:
		c.floats = growSlice(c.floats, n)
	case String:
		c.strs = growSlice(c.strs, n)
	case Timestamp:
		c.times = growSlice(c.times, n)
	case Bool:
		c.bools = growSlice(c.bools, n)
	}
}

func growSlice[T any](s []T, n int) []T {
	if cap(s)-len(s) >= n {
		return s
	}
	out := make([]T, len(s), len(s)+n)
	copy(out, s)
	return out
}

// AppendNull appends a null row.
func (b *ColumnBuilder) AppendNull() {
	c := &b.col
	if c.nulls == nil {
		c.nulls = make([]bool, c.length, c.length+1)
	}
	c.nulls = append(c.nulls, true)
	c.nullable = true
	switch c.typ {
	case Int64:
		c.ints = append(c.ints, 0)
	case Float64:
		c.floats = append(c.floats, 0)
	case String:
		c.strs = append(c.strs, "")
	case Timestamp:
		c.times = append(c.times, time.Time{})
	case Bool:
		c.bools = append(c.bools, false)
	}
	c.length++
}

// Append appends v, converting Go numeric widths to the column type. A nil v
// appends a null.
func (b *ColumnBuilder) Append(v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	c := &b.col
	switch c.typ {
	case Int64:
		n, ok := toInt64(v)
		if !ok {
			return errors.Newf("column %q: cannot store %T as %s", c.name, v, c.typ)
		}
		c.ints = append(c.ints, n)
	case Float64:
		f, ok := toFloat64(v)
		if !ok {
			return errors.Newf("column %q: cannot store %T as %s", c.name, v, c.typ)
		}
		c.floats = append(c.floats, f)
	case String:
		switch s := v.(type) {
		case string:
			c.strs = append(c.strs, s)
		case []byte:
			c.strs = append(c.strs, string(s))
		default:
			return errors.Newf("column %q: cannot store %T as %s", c.name, v, c.typ)
		}
	case Timestamp:
		t, ok := v.(time.Time)
		if !ok {
			return errors.Newf("column %q: cannot store %T as %s", c.name, v, c.typ)
		}
		c.times = append(c.times, t)
	case Bool:
		bv, ok := v.(bool)
		if !ok {
			return errors.Newf("column %q: cannot store %T as %s", c.name, v, c.typ)
		}
		c.bools = append(c.bools, bv)
	default:
		return errors.Newf("column %q: unsupported type %s", c.name, c.typ)
	}
	if c.nulls != nil {
		c.nulls = append(c.nulls, false)
	}
	c.length++
	return nil
}

// Build returns the finished column. The builder must not be used afterwards.
func (b *ColumnBuilder) Build() *Column {
	col := b.col
	b.col = Column{name: col.name, typ: col.typ}
	return &col
}

// ColumnOf builds a column from loosely typed values; nil entries are nulls.
func ColumnOf(name string, typ Type, values ...interface{}) (*Column, error) {
	b := NewColumnBuilder(name, typ)
	b.Grow(len(values))
	for i, v := range values {
		if err := b.Append(v); err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
	}
	return b.Build(), nil
}

// NewInt64Column builds a non-null Int64 column.
func NewInt64Column(name string, values []int64) *Column {
	return &Column{name: name, typ: Int64, length: len(values), ints: values}
}

// NewFloat64Column builds a non-null Float64 column.
func NewFloat64Column(name string, values []float64) *Column {
	return &Column{name: name, typ: Float64, length: len(values), floats: values}
}

// NewStringColumn builds a non-null String column.
func NewStringColumn(name string, values []string) *Column {
	return &Column{name: name, typ: String, length: len(values), strs: values}
}

// NewTimestampColumn builds a non-null Timestamp column.
func NewTimestampColumn(name string, values []time.Time) *Column {
	return &Column{name: name, typ: Timestamp, length: len(values), times: values}
}

// NewBoolColumn builds a non-null Bool column.
func NewBoolColumn(name string, values []bool) *Column {
	return &Column{name: name, typ: Bool, length: len(values), bools: values}
}
