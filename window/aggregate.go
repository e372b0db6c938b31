package window

import (
	"math"

	"github.com/vegasq/winframe/batch"
)

// accumulator folds the rows of a moving frame. Positions are added in
// increasing order at the frame's end and retired in increasing order at
// its start. result receives the frame as ordered positions [from, to).
type accumulator interface {
	add(row int)
	retire(row int)
	result(from, to int) interface{}
}

func newAccumulator(k Kind, col *batch.Column) accumulator {
	switch k {
	case Count:
		return &countAcc{col: col}
	case Sum:
		return &sumAcc{col: col}
	case Avg:
		return &sumAcc{col: col, avg: true}
	case Min:
		return &extremeAcc{col: col, keep: func(c int) bool { return c < 0 }}
	case Max:
		return &extremeAcc{col: col, keep: func(c int) bool { return c > 0 }}
	}
	return nil
}

// countAcc counts non-null values, or all rows when col is nil.
type countAcc struct {
	col *batch.Column
	n   int64
}

func (a *countAcc) add(row int) {
	if a.col == nil || !a.col.IsNull(row) {
		a.n++
	}
}

func (a *countAcc) retire(row int) {
	if a.col == nil || !a.col.IsNull(row) {
		a.n--
	}
}

func (a *countAcc) result(int, int) interface{} { return a.n }

// sumAcc keeps a running sum of non-null values. Integer columns sum
// exactly. A float sum is only kept running while no row is retired; frames
// that drop rows read their finite part from tree instead, since subtracting
// a retired value does not undo its rounding.
type sumAcc struct {
	col  *batch.Column
	avg  bool
	n    int64
	ints int64
	flts float64
	tree sumTree
	// non-finite inputs are counted apart so they can be retired
	nan, posInf, negInf int
}

// addFloat adds sign*v to the running float sum.
func (a *sumAcc) addFloat(v float64, sign int) {
	switch {
	case math.IsNaN(v):
		a.nan += sign
	case math.IsInf(v, 1):
		a.posInf += sign
	case math.IsInf(v, -1):
		a.negInf += sign
	default:
		a.flts += float64(sign) * v
	}
}

func (a *sumAcc) floatSum(from, to int) float64 {
	switch {
	case a.nan > 0 || (a.posInf > 0 && a.negInf > 0):
		return math.NaN()
	case a.posInf > 0:
		return math.Inf(1)
	case a.negInf > 0:
		return math.Inf(-1)
	case a.tree != nil:
		return a.tree.sum(from, to)
	}
	return a.flts
}

func (a *sumAcc) add(row int) {
	if a.col.IsNull(row) {
		return
	}
	a.n++
	if a.col.Type() == batch.Int64 {
		a.ints += a.col.Int64At(row)
	} else {
		a.addFloat(a.col.Float64At(row), 1)
	}
}

func (a *sumAcc) retire(row int) {
	if a.col.IsNull(row) {
		return
	}
	a.n--
	if a.col.Type() == batch.Int64 {
		a.ints -= a.col.Int64At(row)
	} else {
		a.addFloat(a.col.Float64At(row), -1)
	}
	if a.n == 0 {
		a.ints, a.flts = 0, 0
	}
}

func (a *sumAcc) result(from, to int) interface{} {
	isInt := a.col.Type() == batch.Int64
	if a.avg {
		if a.n == 0 {
			return nil
		}
		if isInt {
			return float64(a.ints) / float64(a.n)
		}
		return a.floatSum(from, to) / float64(a.n)
	}
	if isInt {
		return a.ints
	}
	return a.floatSum(from, to)
}

// sumTree is a segment tree over the finite float values of an ordered
// partition, with nulls and non-finite values stored as zero. Leaves start
// at len/2.
type sumTree []float64

func newSumTree(col *batch.Column, ordered []int) sumTree {
	n := len(ordered)
	t := make(sumTree, 2*n)
	for i, row := range ordered {
		if col.IsNull(row) {
			continue
		}
		if v := col.Float64At(row); !math.IsNaN(v) && !math.IsInf(v, 0) {
			t[n+i] = v
		}
	}
	for i := n - 1; i > 0; i-- {
		t[i] = t[2*i] + t[2*i+1]
	}
	return t
}

// sum adds positions [from, to).
func (t sumTree) sum(from, to int) float64 {
	n := len(t) / 2
	var left, right float64
	for from, to = from+n, to+n; from < to; from, to = from>>1, to>>1 {
		if from&1 == 1 {
			left += t[from]
			from++
		}
		if to&1 == 1 {
			to--
			right = t[to] + right
		}
	}
	return left + right
}

// extremeAcc tracks min or max with a monotonic deque of rows. Queued values
// strictly improve from tail to head, so the head answers for the current
// contents.
type extremeAcc struct {
	col   *batch.Column
	keep  func(cmp int) bool
	queue []int
	head  int
}

func (a *extremeAcc) add(row int) {
	if a.col.IsNull(row) {
		return
	}
	for len(a.queue) > a.head && !a.keep(a.col.Compare(a.queue[len(a.queue)-1], row)) {
		a.queue = a.queue[:len(a.queue)-1]
	}
	a.queue = append(a.queue, row)
}

func (a *extremeAcc) retire(row int) {
	if len(a.queue) > a.head && a.queue[a.head] == row {
		a.head++
		if a.head == len(a.queue) {
			a.queue, a.head = a.queue[:0], 0
		}
	}
}

func (a *extremeAcc) result(int, int) interface{} {
	if len(a.queue) == a.head {
		return nil
	}
	return a.col.Value(a.queue[a.head])
}

// slidingFrame moves an accumulator's contents from one frame to the next.
// It holds positions [from, to) of the ordered partition.
type slidingFrame struct {
	acc     accumulator
	ordered []int
	from    int
	to      int
}

// moveTo makes the contents equal to positions [lo, hi]. Both edges must be
// at or beyond the previous call's edges.
func (s *slidingFrame) moveTo(lo, hi int) {
	for s.from < lo && s.from < s.to {
		s.acc.retire(s.ordered[s.from])
		s.from++
	}
	if s.from < lo {
		s.from = lo
		if s.to < lo {
			s.to = lo
		}
	}
	for s.to <= hi {
		s.acc.add(s.ordered[s.to])
		s.to++
	}
}

func (s *slidingFrame) result() interface{} {
	return s.acc.result(s.from, s.to)
}
