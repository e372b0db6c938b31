package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/winframe/batch"
)

// NullText is how TableFormatter shows nulls.
const NullText = "NULL"

// TableFormatter outputs rows as an aligned text table followed by a row
// count.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format renders b as a table.
func (t *TableFormatter) Format(b *batch.Batch) error {
	if b.NumColumns() == 0 {
		_, err := fmt.Fprintln(t.writer, "(0 rows)")
		return err
	}

	table := tablewriter.NewWriter(t.writer)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(b.Names())

	for r := 0; r < b.NumRows(); r++ {
		row := make([]string, b.NumColumns())
		for c := range row {
			v := b.ColumnAt(c).Value(r)
			if v == nil {
				row[c] = NullText
				continue
			}
			row[c] = expandTabsAndNewLines(formatScalar(v))
		}
		table.Append(row)
	}
	table.Render()

	plural := "s"
	if b.NumRows() == 1 {
		plural = ""
	}
	_, err := fmt.Fprintf(t.writer, "(%d row%s)\n", b.NumRows(), plural)
	return err
}

// expandTabsAndNewLines keeps each cell on one table line.
func expandTabsAndNewLines(s string) string {
	return strings.NewReplacer("\t", "\\t", "\n", "\\n", "\r", "\\r").Replace(s)
}
