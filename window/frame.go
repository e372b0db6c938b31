package window

import (
	"cmp"
	"math"
	"sort"
	"time"

	"github.com/vegasq/winframe/batch"
)

// axisDelta is a RANGE offset converted to the units of a rangeAxis.
type axisDelta struct {
	i int64
	f float64
}

// rangeAxis measures distances along the single order key of an ordered
// partition. Values are read in sort direction, so along the axis keys never
// decrease. Nulls and NaNs cannot be measured; they sit at the end of the
// axis where the sort put them and act as infinitely far away, so an offset
// frame of a null row is its null peer group.
type rangeAxis struct {
	// class is 0 for measurable keys; -2/+2 for nulls and -1/+1 for NaNs,
	// negative when they sort first.
	class    []int8
	ints     []int64
	floats   []float64
	integral bool
	desc     bool
	// unit converts bound offsets into key units (nanoseconds per second for
	// timestamps).
	unit float64
}

// Timestamps are measured in nanoseconds since the epoch, which only covers
// this span.
var (
	minAxisTime = time.Unix(0, math.MinInt64)
	maxAxisTime = time.Unix(0, math.MaxInt64)
)

func newRangeAxis(col *batch.Column, ordered []int, key OrderKey, frame Frame) (*rangeAxis, error) {
	if !col.Type().Measurable() {
		return nil, evaluationErrorf("RANGE frame", col.Name(),
			"offsets need a numeric or timestamp order key, got %s", col.Type())
	}
	key = key.resolve(NullsSmallest)
	a := &rangeAxis{
		class: make([]int8, len(ordered)),
		desc:  key.Desc,
		unit:  1,
	}
	switch col.Type() {
	case batch.Timestamp:
		a.integral = true
		a.unit = 1e9
	case batch.Int64:
		a.integral = isWhole(frame.Start.Offset) && isWhole(frame.End.Offset)
	}

	var nullClass, nanClass int8 = 2, -1
	if key.nullsFirst() {
		nullClass = -2
	}
	if key.Desc {
		nanClass = 1
	}

	if a.integral {
		a.ints = make([]int64, len(ordered))
	} else {
		a.floats = make([]float64, len(ordered))
	}
	for p, row := range ordered {
		if col.IsNull(row) {
			a.class[p] = nullClass
			continue
		}
		switch {
		case col.Type() == batch.Timestamp:
			t := col.TimeAt(row)
			if t.Before(minAxisTime) || t.After(maxAxisTime) {
				return nil, evaluationErrorf("RANGE frame", col.Name(),
					"timestamp %s is outside the measurable range %s to %s",
					t.UTC().Format(time.RFC3339), minAxisTime.UTC().Format(time.RFC3339), maxAxisTime.UTC().Format(time.RFC3339))
			}
			a.ints[p] = t.UnixNano()
		case a.integral:
			a.ints[p] = col.Int64At(row)
		default:
			f := col.Float64At(row)
			if math.IsNaN(f) {
				a.class[p] = nanClass
			}
			a.floats[p] = f
		}
	}
	return a, nil
}

func isWhole(f float64) bool { return f == math.Trunc(f) }

func (a *rangeAxis) delta(b Bound) axisDelta {
	d := b.delta() * a.unit
	if !a.integral {
		return axisDelta{f: d}
	}
	d = math.Round(d)
	switch {
	case d >= math.MaxInt64:
		return axisDelta{i: math.MaxInt64}
	case d <= -math.MaxInt64:
		return axisDelta{i: -math.MaxInt64}
	}
	return axisDelta{i: int64(d)}
}

// cmpAt compares the key at position p with the key at cur shifted by d.
func (a *rangeAxis) cmpAt(p, cur int, d axisDelta) int {
	cp, cc := a.class[p], a.class[cur]
	if cc != 0 {
		return cmp.Compare(cp, cc)
	}
	if cp != 0 {
		return cmp.Compare(cp, 0)
	}
	if a.integral {
		x, y := a.ints[p], a.ints[cur]
		if a.desc {
			x, y = y, x
		}
		return compareDiff(x, y, d.i)
	}
	x, y := a.floats[p], a.floats[cur]
	if a.desc {
		x, y = -x, -y
	}
	return cmp.Compare(x, y+d.f)
}

// compareDiff returns the sign of (x - y) - d without overflowing. d must lie
// within ±MaxInt64.
func compareDiff(x, y, d int64) int {
	diff := x - y
	if (x >= 0) != (y >= 0) && (diff >= 0) != (x >= 0) {
		// |x - y| exceeds any d
		return cmp.Compare(x, y)
	}
	return cmp.Compare(diff, d)
}

// peerGroups records, for each position of an ordered partition, the first
// and last position of its peer group.
type peerGroups struct {
	start []int
	end   []int
}

func computePeers(rc *rowComparer, ordered []int) peerGroups {
	n := len(ordered)
	g := peerGroups{start: make([]int, n), end: make([]int, n)}
	first := 0
	for p := 0; p < n; p++ {
		if p > 0 && (rc == nil || !rc.peers(ordered[p-1], ordered[p])) {
			first = p
		}
		g.start[p] = first
	}
	last := n - 1
	for p := n - 1; p >= 0; p-- {
		if p < n-1 && g.start[p+1] != g.start[p] {
			last = p
		}
		g.end[p] = last
	}
	return g
}

// FrameResolver computes frames over one ordered partition. Next serves rows
// in increasing position order with two forward-only pointers, so a full
// sweep costs O(N) beyond the per-row work; At answers any position
// independently.
type FrameResolver struct {
	n          int
	frame      Frame
	peers      peerGroups
	axis       *rangeAxis
	startDelta axisDelta
	endDelta   axisDelta

	lo     int
	hiNext int
	last   int
}

// NewFrameResolver prepares frame resolution for the ordered partition rows
// of b. keys must be the keys rows was ordered by.
func NewFrameResolver(b *batch.Batch, ordered []int, keys []OrderKey, frame Frame) (*FrameResolver, error) {
	var rc *rowComparer
	if len(keys) > 0 {
		var err error
		if rc, err = newRowComparer(b, keys); err != nil {
			return nil, err
		}
	}
	var peers peerGroups
	if frame.Mode == Range {
		peers = computePeers(rc, ordered)
	}
	return newFrameResolver(b, ordered, keys, frame, peers)
}

func newFrameResolver(b *batch.Batch, ordered []int, keys []OrderKey, frame Frame, peers peerGroups) (*FrameResolver, error) {
	r := &FrameResolver{n: len(ordered), frame: frame, peers: peers, last: -1}
	if frame.Mode != Range || !frame.hasOffsets() {
		return r, nil
	}
	if len(keys) != 1 {
		return nil, evaluationErrorf("RANGE frame", "", "offsets need exactly one order key, got %d", len(keys))
	}
	col, ok := b.Column(keys[0].Column)
	if !ok {
		return nil, evaluationErrorf("RANGE frame", keys[0].Column, "no such column")
	}
	axis, err := newRangeAxis(col, ordered, keys[0], frame)
	if err != nil {
		return nil, err
	}
	r.axis = axis
	r.startDelta = axis.delta(frame.Start)
	r.endDelta = axis.delta(frame.End)
	return r, nil
}

// Len returns the partition size.
func (r *FrameResolver) Len() int { return r.n }

// At returns the inclusive frame [lo, hi] of position cur. The frame is
// empty when lo > hi.
func (r *FrameResolver) At(cur int) (lo, hi int) {
	if r.frame.Mode == Rows {
		return r.rowsFrame(cur)
	}
	switch r.frame.Start.Type {
	case UnboundedPreceding:
		lo = 0
	case CurrentRow:
		lo = r.peers.start[cur]
	default:
		lo = sort.Search(r.n, func(p int) bool { return r.axis.cmpAt(p, cur, r.startDelta) >= 0 })
	}
	switch r.frame.End.Type {
	case UnboundedFollowing:
		hi = r.n - 1
	case CurrentRow:
		hi = r.peers.end[cur]
	default:
		hi = sort.Search(r.n, func(p int) bool { return r.axis.cmpAt(p, cur, r.endDelta) > 0 }) - 1
	}
	return lo, hi
}

// Next returns the frame of position cur like At, advancing the sweep
// pointers instead of searching. Positions must be requested in increasing
// order; going backwards restarts the sweep.
func (r *FrameResolver) Next(cur int) (lo, hi int) {
	if r.frame.Mode == Rows || r.axis == nil {
		return r.At(cur)
	}
	if cur < r.last {
		r.lo, r.hiNext = 0, 0
	}
	r.last = cur

	switch r.frame.Start.Type {
	case UnboundedPreceding:
		lo = 0
	case CurrentRow:
		lo = r.peers.start[cur]
	default:
		for r.lo < r.n && r.axis.cmpAt(r.lo, cur, r.startDelta) < 0 {
			r.lo++
		}
		lo = r.lo
	}
	switch r.frame.End.Type {
	case UnboundedFollowing:
		hi = r.n - 1
	case CurrentRow:
		hi = r.peers.end[cur]
	default:
		for r.hiNext < r.n && r.axis.cmpAt(r.hiNext, cur, r.endDelta) <= 0 {
			r.hiNext++
		}
		hi = r.hiNext - 1
	}
	return lo, hi
}

func (r *FrameResolver) rowsFrame(cur int) (lo, hi int) {
	lo = rowsEdge(cur, r.frame.Start, r.n)
	if lo < 0 {
		lo = 0
	}
	hi = rowsEdge(cur, r.frame.End, r.n)
	if hi > r.n-1 {
		hi = r.n - 1
	}
	return lo, hi
}

// rowsEdge is cur shifted by the bound. Offsets are capped at n; an edge
// beyond the partition is left there so the frame comes out empty.
func rowsEdge(cur int, b Bound, n int) int {
	switch b.Type {
	case UnboundedPreceding:
		return 0
	case UnboundedFollowing:
		return n - 1
	case CurrentRow:
		return cur
	}
	off := n
	if b.Offset < float64(n) {
		off = int(b.Offset)
	}
	if b.Type == Preceding {
		off = -off
	}
	return cur + off
}
