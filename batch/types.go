package batch

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Type is the semantic type of a column.
type Type int

const (
	Int64 Type = iota
	Float64
	String
	Timestamp
	Bool
)

var typeNames = [...]string{
	Int64:     "INT64",
	Float64:   "FLOAT64",
	String:    "STRING",
	Timestamp: "TIMESTAMP",
	Bool:      "BOOLEAN",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// Numeric reports whether values of the type can be summed and averaged.
func (t Type) Numeric() bool {
	return t == Int64 || t == Float64
}

// Measurable reports whether the distance between two values of the type is
// defined, which RANGE frames with offsets need.
func (t Type) Measurable() bool {
	return t == Int64 || t == Float64 || t == Timestamp
}

// ParseType converts a type name such as "int64" or "timestamp" to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INT64", "INT", "INTEGER", "INT32":
		return Int64, nil
	case "FLOAT64", "FLOAT", "DOUBLE", "FLOAT32":
		return Float64, nil
	case "STRING", "TEXT", "UTF8":
		return String, nil
	case "TIMESTAMP", "TIME":
		return Timestamp, nil
	case "BOOLEAN", "BOOL":
		return Bool, nil
	default:
		return 0, errors.Newf("unknown column type %q", s)
	}
}

// Field describes one column of a batch.
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Type     Type   `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
