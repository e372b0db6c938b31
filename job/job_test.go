package job

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/winframe/window"
)

const salesJob = `
input: data/*.parquet
windows:
  - name: running_total
    function: {kind: sum, column: amount}
    partition_by: [account]
    order_by: [{column: ts}]
    frame: {mode: rows, start: {type: unbounded_preceding}, end: {type: current_row}}
  - name: last_hour
    function: {kind: count}
    partition_by: [account]
    order_by: [{column: ts, desc: true, nulls: last}]
    frame: {mode: range, start: {type: preceding, interval: 1h}, end: {type: current_row}}
  - name: previous
    function: {kind: lag, column: amount, default: 0}
    order_by: [{column: ts}]
`

func TestLoad(t *testing.T) {
	j, err := Load(strings.NewReader(salesJob))
	require.NoError(t, err)

	assert.Equal(t, "data/*.parquet", j.Input)
	require.Len(t, j.Windows, 3)
	assert.Equal(t, "running_total", j.Windows[0].Name)
	assert.Equal(t, "sum", j.Windows[0].Function.Kind)
	assert.Equal(t, []string{"account"}, j.Windows[0].PartitionBy)
	require.NotNil(t, j.Windows[1].Frame)
	assert.Equal(t, "1h", j.Windows[1].Frame.Start.Interval)
	assert.Nil(t, j.Windows[2].Frame)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no windows", "input: a.parquet\n"},
		{"unknown key", "windows:\n  - name: a\n    function: {kind: rank}\n    partiton_by: [x]\n"},
		{"bad yaml", "windows: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestExprs(t *testing.T) {
	j, err := Load(strings.NewReader(salesJob))
	require.NoError(t, err)

	exprs, err := j.Exprs(window.Builder{})
	require.NoError(t, err)
	require.Len(t, exprs, 3)

	assert.Equal(t, window.Function{Kind: window.Sum, Column: "amount"}, exprs[0].Func)
	frame, explicit := exprs[1].Spec.Frame()
	require.True(t, explicit)
	assert.Equal(t, window.Range, frame.Mode)
	assert.Equal(t, 3600.0, frame.Start.Offset)
	assert.Equal(t, 1, exprs[2].Func.Offset, "lag defaults to one row")
	assert.Equal(t, 0, exprs[2].Func.Default)

	nulls := exprs[2].Spec.OrderBy()[0].Nulls
	assert.Equal(t, window.NullsFirst, nulls)
	exprs, err = j.Exprs(window.Builder{Nulls: window.NullsLargest})
	require.NoError(t, err)
	assert.Equal(t, window.NullsLast, exprs[2].Spec.OrderBy()[0].Nulls)
}

func TestExprsErrors(t *testing.T) {
	tests := []struct {
		name       string
		windows    []Window
		validation bool
	}{
		{"missing name", []Window{{Function: window.FunctionDoc{Kind: "rank"}}}, false},
		{"duplicate name", []Window{
			{Name: "a", Function: window.FunctionDoc{Kind: "rank"}},
			{Name: "a", Function: window.FunctionDoc{Kind: "row_number"}},
		}, false},
		{"unknown function", []Window{{Name: "a", Function: window.FunctionDoc{Kind: "median"}}}, true},
		{"range without order", []Window{{
			Name:     "a",
			Function: window.FunctionDoc{Kind: "count"},
			SpecDoc: window.SpecDoc{Frame: &window.FrameDoc{
				Mode:  "range",
				Start: window.BoundDoc{Type: "preceding", Offset: 1},
				End:   window.BoundDoc{Type: "current_row"},
			}},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Job{Windows: tt.windows}).Exprs(window.Builder{})
			require.Error(t, err)
			assert.Equal(t, tt.validation, window.IsValidationError(err), "%v", err)
		})
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	j, err := Load(strings.NewReader(salesJob))
	require.NoError(t, err)

	norm, err := j.Normalize(window.Builder{})
	require.NoError(t, err)
	assert.Equal(t, "first", norm.Windows[0].OrderBy[0].Nulls)
	assert.Equal(t, 3600.0, norm.Windows[1].Frame.Start.Offset)
	assert.Empty(t, norm.Windows[1].Frame.Start.Interval)
	require.NotNil(t, norm.Windows[2].Function.Offset)
	assert.Equal(t, 1, *norm.Windows[2].Function.Offset)

	var buf bytes.Buffer
	require.NoError(t, norm.Write(&buf))

	again, err := Load(&buf)
	require.NoError(t, err)
	twice, err := again.Normalize(window.Builder{})
	require.NoError(t, err)
	assert.Equal(t, norm, twice)

	want, err := j.Exprs(window.Builder{})
	require.NoError(t, err)
	got, err := again.Exprs(window.Builder{})
	require.NoError(t, err)
	for i := range want {
		assert.True(t, want[i].Spec.Equal(got[i].Spec), "window %s", want[i].Name)
		assert.Equal(t, want[i].Func, got[i].Func)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(salesJob), 0644))

	j, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, j.Windows, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
