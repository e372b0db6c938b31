package output

import (
	"bufio"
	"encoding/json"
	"io"
	"math"

	"github.com/vegasq/winframe/batch"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line). Keys keep the
// batch's column order. Timestamps are RFC 3339 strings and non-finite
// floats are written as the strings "NaN", "+Inf" and "-Inf".
func (j *JSONFormatter) Format(b *batch.Batch) error {
	bw := bufio.NewWriter(j.writer)
	keys := make([][]byte, b.NumColumns())
	for c := range keys {
		k, err := json.Marshal(b.ColumnAt(c).Name())
		if err != nil {
			return err
		}
		keys[c] = k
	}

	for r := 0; r < b.NumRows(); r++ {
		_ = bw.WriteByte('{')
		for c, key := range keys {
			if c > 0 {
				_ = bw.WriteByte(',')
			}
			_, _ = bw.Write(key)
			_ = bw.WriteByte(':')
			val, err := jsonValue(b.ColumnAt(c).Value(r))
			if err != nil {
				return err
			}
			_, _ = bw.Write(val)
		}
		_, _ = bw.WriteString("}\n")
	}
	return bw.Flush()
}

func jsonValue(v interface{}) ([]byte, error) {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return json.Marshal(formatScalar(f))
	}
	return json.Marshal(v)
}
