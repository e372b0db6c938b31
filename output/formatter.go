package output

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vegasq/winframe/batch"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to write a batch in the target format
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes every row of b, columns in batch order.
	Format(b *batch.Batch) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Format names an output format.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSONL, FormatCSV, FormatTable}

// ParseFormat accepts a format name; "json" is an alias for jsonl.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSONL, FormatCSV, FormatTable:
		return f, nil
	case "json":
		return FormatJSONL, nil
	}
	return "", errors.Newf("unknown output format %q (want jsonl, csv or table)", s)
}

// New returns the formatter for f writing to w.
func New(f Format, w io.Writer) (Formatter, error) {
	switch f {
	case FormatJSONL:
		return NewJSONFormatter(w), nil
	case FormatCSV:
		return NewCSVFormatter(w), nil
	case FormatTable:
		return NewTableFormatter(w), nil
	}
	return nil, errors.Newf("unknown output format %q", f)
}

// formatScalar renders a non-null batch value as text.
func formatScalar(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		switch {
		case math.IsNaN(val):
			return "NaN"
		case math.IsInf(val, 1):
			return "+Inf"
		case math.IsInf(val, -1):
			return "-Inf"
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	}
	return ""
}
