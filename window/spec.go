package window

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// NullOrder places nulls within an order key.
type NullOrder int

const (
	// NullsDefault defers to the Builder's NullPlacement.
	NullsDefault NullOrder = iota
	NullsFirst
	NullsLast
)

// NullPlacement decides where NullsDefault puts nulls.
type NullPlacement int

const (
	// NullsSmallest sorts nulls first when ascending and last when descending.
	NullsSmallest NullPlacement = iota
	// NullsLargest sorts nulls last when ascending and first when descending.
	NullsLargest
)

// ParseNullPlacement accepts "smallest" or "largest".
func ParseNullPlacement(s string) (NullPlacement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smallest", "low":
		return NullsSmallest, nil
	case "largest", "high":
		return NullsLargest, nil
	default:
		return 0, errors.Newf("unknown null placement %q (want smallest or largest)", s)
	}
}

func (p NullPlacement) String() string {
	if p == NullsLargest {
		return "largest"
	}
	return "smallest"
}

// OrderKey is one column of an ORDER BY list.
type OrderKey struct {
	Column string
	Desc   bool
	Nulls  NullOrder
}

// Asc orders by column ascending with default null placement.
func Asc(column string) OrderKey { return OrderKey{Column: column} }

// Desc orders by column descending with default null placement.
func Desc(column string) OrderKey { return OrderKey{Column: column, Desc: true} }

// nullsFirst reports where nulls go; the key must already be resolved.
func (k OrderKey) nullsFirst() bool {
	if k.Nulls == NullsDefault {
		return !k.Desc
	}
	return k.Nulls == NullsFirst
}

func (k OrderKey) resolve(p NullPlacement) OrderKey {
	if k.Nulls != NullsDefault {
		return k
	}
	first := !k.Desc
	if p == NullsLargest {
		first = !first
	}
	if first {
		k.Nulls = NullsFirst
	} else {
		k.Nulls = NullsLast
	}
	return k
}

func (k OrderKey) String() string {
	var sb strings.Builder
	sb.WriteString(k.Column)
	if k.Desc {
		sb.WriteString(" DESC")
	} else {
		sb.WriteString(" ASC")
	}
	switch k.Nulls {
	case NullsFirst:
		sb.WriteString(" NULLS FIRST")
	case NullsLast:
		sb.WriteString(" NULLS LAST")
	}
	return sb.String()
}

// FrameMode selects how frame offsets are measured.
type FrameMode int

const (
	// Rows measures offsets in rows.
	Rows FrameMode = iota
	// Range measures offsets as distances on the single order key.
	Range
)

func (m FrameMode) String() string {
	if m == Range {
		return "RANGE"
	}
	return "ROWS"
}

// BoundType is the kind of a frame edge.
type BoundType int

const (
	// UnboundedPreceding is the first row of the partition.
	UnboundedPreceding BoundType = iota
	// Preceding is Offset rows or values before the current row.
	Preceding
	// CurrentRow is the current row, or its peer group in RANGE mode.
	CurrentRow
	// Following is Offset rows or values after the current row.
	Following
	// UnboundedFollowing is the last row of the partition.
	UnboundedFollowing
)

var boundTypeNames = [...]string{
	UnboundedPreceding: "UNBOUNDED PRECEDING",
	Preceding:          "PRECEDING",
	CurrentRow:         "CURRENT ROW",
	Following:          "FOLLOWING",
	UnboundedFollowing: "UNBOUNDED FOLLOWING",
}

func (t BoundType) String() string {
	if t < 0 || int(t) >= len(boundTypeNames) {
		return "UNKNOWN"
	}
	return boundTypeNames[t]
}

// Bound is one edge of a frame. Offset is used only by Preceding and
// Following: a row count in ROWS mode, a value distance in RANGE mode, and a
// number of seconds when the RANGE key is a timestamp.
type Bound struct {
	Type   BoundType
	Offset float64
}

var (
	// UnboundedPrecedingBound is "UNBOUNDED PRECEDING".
	UnboundedPrecedingBound = Bound{Type: UnboundedPreceding}
	// CurrentRowBound is "CURRENT ROW".
	CurrentRowBound = Bound{Type: CurrentRow}
	// UnboundedFollowingBound is "UNBOUNDED FOLLOWING".
	UnboundedFollowingBound = Bound{Type: UnboundedFollowing}
)

// PrecedingBound is "n PRECEDING".
func PrecedingBound(n float64) Bound { return Bound{Type: Preceding, Offset: n} }

// FollowingBound is "n FOLLOWING".
func FollowingBound(n float64) Bound { return Bound{Type: Following, Offset: n} }

// delta is the bound's signed offset from the current row: negative for
// PRECEDING, positive for FOLLOWING, infinite for the unbounded edges.
func (b Bound) delta() float64 {
	switch b.Type {
	case UnboundedPreceding:
		return math.Inf(-1)
	case Preceding:
		return -b.Offset
	case Following:
		return b.Offset
	case UnboundedFollowing:
		return math.Inf(1)
	}
	return 0
}

func (b Bound) hasOffset() bool {
	return b.Type == Preceding || b.Type == Following
}

func (b Bound) String() string {
	if b.hasOffset() {
		return strconv.FormatFloat(b.Offset, 'g', -1, 64) + " " + b.Type.String()
	}
	return b.Type.String()
}

// Frame is the row set visible to a frame-aware function for each row.
type Frame struct {
	Mode  FrameMode
	Start Bound
	End   Bound
}

// RowsBetween returns a ROWS frame for use with Build.
func RowsBetween(start, end Bound) *Frame {
	return &Frame{Mode: Rows, Start: start, End: end}
}

// RangeBetween returns a RANGE frame for use with Build.
func RangeBetween(start, end Bound) *Frame {
	return &Frame{Mode: Range, Start: start, End: end}
}

var (
	// defaultOrderedFrame applies to frame-aware functions with ORDER BY and
	// no explicit frame: each row sees its partition up to its last peer.
	defaultOrderedFrame = Frame{Mode: Range, Start: UnboundedPrecedingBound, End: CurrentRowBound}
	// wholePartitionFrame applies otherwise.
	wholePartitionFrame = Frame{Mode: Rows, Start: UnboundedPrecedingBound, End: UnboundedFollowingBound}
)

func (f Frame) String() string {
	return f.Mode.String() + " BETWEEN " + f.Start.String() + " AND " + f.End.String()
}

func (f Frame) hasOffsets() bool {
	return f.Start.hasOffset() || f.End.hasOffset()
}

// Spec is a validated, normalized window definition. The zero value is the
// empty window (one partition, no ordering, implicit frame). Specs are values:
// accessors return copies and nothing mutates a Spec after Build.
type Spec struct {
	partitionBy []string
	orderBy     []OrderKey
	frame       Frame
	explicit    bool
}

// PartitionBy returns the partition key columns.
func (s Spec) PartitionBy() []string { return slices.Clone(s.partitionBy) }

// OrderBy returns the resolved order keys.
func (s Spec) OrderBy() []OrderKey { return slices.Clone(s.orderBy) }

// Frame returns the explicit frame, if one was given.
func (s Spec) Frame() (Frame, bool) { return s.frame, s.explicit }

// FrameFor returns the frame used when evaluating a function of kind k.
//
// Without an explicit frame, a frame-aware function over an ordered window
// sees RANGE BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW, so last() returns
// the current row's last peer rather than the partition's last row. All
// other cases see the whole partition.
func (s Spec) FrameFor(k Kind) Frame {
	if s.explicit {
		return s.frame
	}
	if len(s.orderBy) > 0 && k.AcceptsFrame() {
		return defaultOrderedFrame
	}
	return wholePartitionFrame
}

// Equal reports whether two specs describe the same window.
func (s Spec) Equal(o Spec) bool {
	return slices.Equal(s.partitionBy, o.partitionBy) &&
		slices.Equal(s.orderBy, o.orderBy) &&
		s.explicit == o.explicit &&
		(!s.explicit || s.frame == o.frame)
}

// String renders s in SQL window syntax.
func (s Spec) String() string {
	var parts []string
	if len(s.partitionBy) > 0 {
		parts = append(parts, "PARTITION BY "+strings.Join(s.partitionBy, ", "))
	}
	if len(s.orderBy) > 0 {
		keys := make([]string, len(s.orderBy))
		for i, k := range s.orderBy {
			keys[i] = k.String()
		}
		parts = append(parts, "ORDER BY "+strings.Join(keys, ", "))
	}
	if s.explicit {
		parts = append(parts, s.frame.String())
	}
	return strings.Join(parts, " ")
}

// Builder validates and normalizes window definitions.
type Builder struct {
	// Nulls resolves order keys that leave null placement unspecified.
	Nulls NullPlacement
}

// Build validates a window definition with the default Builder.
func Build(partitionBy []string, orderBy []OrderKey, frame *Frame) (Spec, error) {
	return Builder{}.Build(partitionBy, orderBy, frame)
}

// MustBuild is Build for fixtures; it panics on error.
func MustBuild(partitionBy []string, orderBy []OrderKey, frame *Frame) Spec {
	s, err := Build(partitionBy, orderBy, frame)
	if err != nil {
		panic(err)
	}
	return s
}

// Build validates a window definition and returns its normalized Spec. A
// nil frame selects the default frame at evaluation time (see FrameFor).
// All failures are *ValidationError.
func (b Builder) Build(partitionBy []string, orderBy []OrderKey, frame *Frame) (Spec, error) {
	var s Spec

	seen := make(map[string]bool, len(partitionBy))
	for i, col := range partitionBy {
		if strings.TrimSpace(col) == "" {
			return Spec{}, validationErrorf("partition_by", "key %d is empty", i)
		}
		if seen[col] {
			return Spec{}, validationErrorf("partition_by", "column %q listed twice", col)
		}
		seen[col] = true
	}
	if len(partitionBy) > 0 {
		s.partitionBy = slices.Clone(partitionBy)
	}

	clear(seen)
	for i, k := range orderBy {
		if strings.TrimSpace(k.Column) == "" {
			return Spec{}, validationErrorf("order_by", "key %d is empty", i)
		}
		if seen[k.Column] {
			return Spec{}, validationErrorf("order_by", "column %q listed twice", k.Column)
		}
		seen[k.Column] = true
		if k.Nulls < NullsDefault || k.Nulls > NullsLast {
			return Spec{}, validationErrorf("order_by", "column %q has unknown null ordering %d", k.Column, k.Nulls)
		}
		s.orderBy = append(s.orderBy, k.resolve(b.Nulls))
	}

	if frame == nil {
		return s, nil
	}
	f, err := normalizeFrame(*frame, len(orderBy))
	if err != nil {
		return Spec{}, err
	}
	s.frame = f
	s.explicit = true
	return s, nil
}

func normalizeFrame(f Frame, orderKeys int) (Frame, error) {
	if f.Mode != Rows && f.Mode != Range {
		return Frame{}, validationErrorf("frame.mode", "unknown mode %d", f.Mode)
	}
	if f.Mode == Range && orderKeys != 1 {
		return Frame{}, validationErrorf("frame.mode", "RANGE frame needs exactly one order key, got %d", orderKeys)
	}
	start, err := normalizeBound("frame.start", f.Start, f.Mode)
	if err != nil {
		return Frame{}, err
	}
	end, err := normalizeBound("frame.end", f.End, f.Mode)
	if err != nil {
		return Frame{}, err
	}
	if start.Type == UnboundedFollowing {
		return Frame{}, validationErrorf("frame.start", "cannot be UNBOUNDED FOLLOWING")
	}
	if end.Type == UnboundedPreceding {
		return Frame{}, validationErrorf("frame.end", "cannot be UNBOUNDED PRECEDING")
	}
	if start.delta() > end.delta() {
		return Frame{}, validationErrorf("frame", "start %s is after end %s", start, end)
	}
	return Frame{Mode: f.Mode, Start: start, End: end}, nil
}

func normalizeBound(field string, b Bound, mode FrameMode) (Bound, error) {
	if b.Type < UnboundedPreceding || b.Type > UnboundedFollowing {
		return Bound{}, validationErrorf(field, "unknown bound type %d", b.Type)
	}
	if !b.hasOffset() {
		return Bound{Type: b.Type}, nil
	}
	if math.IsNaN(b.Offset) || math.IsInf(b.Offset, 0) {
		return Bound{}, validationErrorf(field, "offset must be finite")
	}
	if b.Offset < 0 {
		return Bound{}, validationErrorf(field, "offset must not be negative, got %g", b.Offset)
	}
	if mode == Rows && b.Offset != math.Trunc(b.Offset) {
		return Bound{}, validationErrorf(field, "ROWS offset must be a whole number, got %g", b.Offset)
	}
	return b, nil
}
