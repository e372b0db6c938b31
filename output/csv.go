package output

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vegasq/winframe/batch"
)

// CSVFormatter outputs rows as CSV format
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes a header row of column names followed by one record per row.
// Nulls are empty fields. A batch without columns writes nothing.
func (c *CSVFormatter) Format(b *batch.Batch) error {
	csvWriter := csv.NewWriter(c.writer)

	if b.NumColumns() > 0 {
		if err := csvWriter.Write(b.Names()); err != nil {
			return err
		}
		record := make([]string, b.NumColumns())
		for r := 0; r < b.NumRows(); r++ {
			for i := range record {
				record[i] = formatCSVValue(b.ColumnAt(i).Value(r))
			}
			if err := csvWriter.Write(record); err != nil {
				return err
			}
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return errors.Wrap(err, "failed to flush CSV writer")
	}
	return nil
}

// formatCSVValue converts a value to string for CSV output
func formatCSVValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if val, ok := v.(string); ok {
		// Sanitize against CSV injection by prefixing dangerous characters
		// that could trigger formula execution in spreadsheet applications
		if len(val) > 0 {
			switch val[0] {
			case '=', '+', '-', '@', '\t', '\r', '\n', '|':
				return "'" + strings.ReplaceAll(val, "'", "''")
			}
		}
		return val
	}
	return formatScalar(v)
}
