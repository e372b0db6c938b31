package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBuildRejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name        string
		partitionBy []string
		orderBy     []OrderKey
		frame       *Frame
		field       string
	}{
		{
			name:        "empty partition key",
			partitionBy: []string{"a", " "},
			field:       "partition_by",
		},
		{
			name:        "duplicate partition key",
			partitionBy: []string{"a", "a"},
			field:       "partition_by",
		},
		{
			name:    "duplicate order key",
			orderBy: []OrderKey{Asc("a"), Desc("a")},
			field:   "order_by",
		},
		{
			name:  "range without order key",
			frame: RangeBetween(UnboundedPrecedingBound, CurrentRowBound),
			field: "frame.mode",
		},
		{
			name:    "range with two order keys",
			orderBy: []OrderKey{Asc("a"), Asc("b")},
			frame:   RangeBetween(PrecedingBound(1), CurrentRowBound),
			field:   "frame.mode",
		},
		{
			name:  "start unbounded following",
			frame: RowsBetween(UnboundedFollowingBound, UnboundedFollowingBound),
			field: "frame.start",
		},
		{
			name:  "end unbounded preceding",
			frame: RowsBetween(UnboundedPrecedingBound, UnboundedPrecedingBound),
			field: "frame.end",
		},
		{
			name:  "start after end",
			frame: RowsBetween(FollowingBound(2), PrecedingBound(1)),
			field: "frame",
		},
		{
			name:  "current row before preceding end",
			frame: RowsBetween(CurrentRowBound, PrecedingBound(1)),
			field: "frame",
		},
		{
			name:  "negative offset",
			frame: RowsBetween(PrecedingBound(-1), CurrentRowBound),
			field: "frame.start",
		},
		{
			name:  "fractional rows offset",
			frame: RowsBetween(PrecedingBound(1.5), CurrentRowBound),
			field: "frame.start",
		},
		{
			name:    "infinite range offset",
			orderBy: []OrderKey{Asc("a")},
			frame:   RangeBetween(CurrentRowBound, FollowingBound(math.Inf(1))),
			field:   "frame.end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.partitionBy, tt.orderBy, tt.frame)
			require.Error(t, err)
			assert.True(t, IsValidationError(err), "got %v", err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBuildAcceptsValidSpecs(t *testing.T) {
	tests := []struct {
		name    string
		orderBy []OrderKey
		frame   *Frame
	}{
		{"no frame", []OrderKey{Asc("a"), Desc("b")}, nil},
		{"rows offsets", nil, RowsBetween(PrecedingBound(1), FollowingBound(1))},
		{"rows both preceding", nil, RowsBetween(PrecedingBound(3), PrecedingBound(1))},
		{"range fractional", []OrderKey{Asc("a")}, RangeBetween(PrecedingBound(0.5), FollowingBound(2.25))},
		{"range current row", []OrderKey{Asc("a")}, RangeBetween(CurrentRowBound, CurrentRowBound)},
		{"rows whole partition", nil, RowsBetween(UnboundedPrecedingBound, UnboundedFollowingBound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]string{"p"}, tt.orderBy, tt.frame)
			require.NoError(t, err)
		})
	}
}

func TestBuildResolvesNullPlacement(t *testing.T) {
	spec := MustBuild(nil, []OrderKey{Asc("a"), Desc("b"), {Column: "c", Nulls: NullsLast}}, nil)
	keys := spec.OrderBy()
	assert.Equal(t, NullsFirst, keys[0].Nulls)
	assert.Equal(t, NullsLast, keys[1].Nulls)
	assert.Equal(t, NullsLast, keys[2].Nulls)

	spec, err := Builder{Nulls: NullsLargest}.Build(nil, []OrderKey{Asc("a"), Desc("b")}, nil)
	require.NoError(t, err)
	keys = spec.OrderBy()
	assert.Equal(t, NullsLast, keys[0].Nulls)
	assert.Equal(t, NullsFirst, keys[1].Nulls)
}

func TestSpecIsImmutable(t *testing.T) {
	partitionBy := []string{"p"}
	orderBy := []OrderKey{Asc("a")}
	spec := MustBuild(partitionBy, orderBy, nil)

	partitionBy[0] = "changed"
	orderBy[0].Column = "changed"
	spec.PartitionBy()[0] = "changed"
	spec.OrderBy()[0].Column = "changed"

	assert.Equal(t, []string{"p"}, spec.PartitionBy())
	assert.Equal(t, "a", spec.OrderBy()[0].Column)
}

func TestFrameFor(t *testing.T) {
	ordered := MustBuild(nil, []OrderKey{Asc("a")}, nil)
	assert.Equal(t, defaultOrderedFrame, ordered.FrameFor(Sum))
	assert.Equal(t, defaultOrderedFrame, ordered.FrameFor(Last))
	assert.Equal(t, wholePartitionFrame, ordered.FrameFor(Rank))

	unordered := MustBuild([]string{"p"}, nil, nil)
	assert.Equal(t, wholePartitionFrame, unordered.FrameFor(Sum))

	explicit := MustBuild(nil, nil, RowsBetween(PrecedingBound(1), CurrentRowBound))
	f, ok := explicit.Frame()
	assert.True(t, ok)
	assert.Equal(t, f, explicit.FrameFor(Max))
}

func TestSpecString(t *testing.T) {
	spec := MustBuild([]string{"region"}, []OrderKey{Desc("day")}, RangeBetween(PrecedingBound(7), CurrentRowBound))
	assert.Equal(t, "PARTITION BY region ORDER BY day DESC NULLS LAST RANGE BETWEEN 7 PRECEDING AND CURRENT ROW", spec.String())
	assert.Equal(t, "", Spec{}.String())
}

func TestDocRoundTrip(t *testing.T) {
	specs := []Spec{
		{},
		MustBuild([]string{"p", "q"}, nil, nil),
		MustBuild(nil, []OrderKey{Asc("a"), Desc("b")}, nil),
		MustBuild([]string{"p"}, []OrderKey{{Column: "a", Nulls: NullsLast}}, RowsBetween(PrecedingBound(2), FollowingBound(3))),
		MustBuild(nil, []OrderKey{Desc("t")}, RangeBetween(PrecedingBound(1.5), CurrentRowBound)),
		MustBuild(nil, []OrderKey{Asc("t")}, RangeBetween(UnboundedPrecedingBound, UnboundedFollowingBound)),
	}
	for _, spec := range specs {
		t.Run(spec.String(), func(t *testing.T) {
			rebuilt, err := FromDoc(spec.Doc())
			require.NoError(t, err)
			assert.True(t, spec.Equal(rebuilt), "%s != %s", spec, rebuilt)

			// normalization is idempotent, also through YAML
			out, err := yaml.Marshal(rebuilt.Doc())
			require.NoError(t, err)
			var doc SpecDoc
			require.NoError(t, yaml.Unmarshal(out, &doc))
			again, err := FromDoc(doc)
			require.NoError(t, err)
			assert.Equal(t, spec.Doc(), again.Doc())
		})
	}
}

func TestDocRoundTripKeepsNullPlacementAcrossBuilders(t *testing.T) {
	spec, err := Builder{Nulls: NullsLargest}.Build(nil, []OrderKey{Asc("a")}, nil)
	require.NoError(t, err)

	rebuilt, err := FromDoc(spec.Doc())
	require.NoError(t, err)
	assert.True(t, spec.Equal(rebuilt))
	assert.Equal(t, NullsLast, rebuilt.OrderBy()[0].Nulls)
}

func TestFromDocParsesBounds(t *testing.T) {
	spec, err := FromDoc(SpecDoc{
		OrderBy: []OrderKeyDoc{{Column: "ts"}},
		Frame: &FrameDoc{
			Mode:  "RANGE",
			Start: BoundDoc{Type: "preceding", Interval: "90m"},
			End:   BoundDoc{Type: "current row"},
		},
	})
	require.NoError(t, err)
	f, ok := spec.Frame()
	require.True(t, ok)
	assert.Equal(t, Range, f.Mode)
	assert.Equal(t, PrecedingBound(5400), f.Start)
	assert.Equal(t, CurrentRowBound, f.End)

	bad := []SpecDoc{
		{Frame: &FrameDoc{Mode: "groups"}},
		{Frame: &FrameDoc{Mode: "rows", Start: BoundDoc{Type: "sideways"}, End: BoundDoc{Type: "current_row"}}},
		{Frame: &FrameDoc{Mode: "rows", Start: BoundDoc{Type: "current_row", Offset: 2}, End: BoundDoc{Type: "current_row"}}},
		{Frame: &FrameDoc{Mode: "rows", Start: BoundDoc{Type: "preceding", Offset: 1, Interval: "1s"}, End: BoundDoc{Type: "current_row"}}},
		{Frame: &FrameDoc{Mode: "rows", Start: BoundDoc{Type: "preceding", Interval: "soon"}, End: BoundDoc{Type: "current_row"}}},
		{OrderBy: []OrderKeyDoc{{Column: "a", Nulls: "middle"}}},
	}
	for _, d := range bad {
		_, err := FromDoc(d)
		assert.True(t, IsValidationError(err), "doc %+v: got %v", d, err)
	}
}

func TestParseBoundType(t *testing.T) {
	for in, want := range map[string]BoundType{
		"unbounded_preceding": UnboundedPreceding,
		"UNBOUNDED PRECEDING": UnboundedPreceding,
		"preceding":           Preceding,
		"current-row":         CurrentRow,
		" Following ":         Following,
		"unbounded following": UnboundedFollowing,
	} {
		got, ok := ParseBoundType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseBoundType("later")
	assert.False(t, ok)
}

func TestParseNullPlacement(t *testing.T) {
	p, err := ParseNullPlacement("Largest")
	require.NoError(t, err)
	assert.Equal(t, NullsLargest, p)

	p, err = ParseNullPlacement("")
	require.NoError(t, err)
	assert.Equal(t, NullsSmallest, p)

	_, err = ParseNullPlacement("middle")
	assert.Error(t, err)
}
