package window

import (
	"github.com/vegasq/winframe/batch"
)

// evalPlan is one window function bound to one batch. It is checked once,
// then shared read-only by every partition's evaluation.
type evalPlan struct {
	batch   *batch.Batch
	spec    Spec
	fn      Function
	frame   Frame
	target  *batch.Column
	rc      *rowComparer
	outType batch.Type
}

func newEvalPlan(b *batch.Batch, spec Spec, fn Function) (*evalPlan, error) {
	if err := fn.Validate(); err != nil {
		return nil, err
	}
	p := &evalPlan{batch: b, spec: spec, fn: fn, frame: spec.FrameFor(fn.Kind)}

	if fn.Column != "" {
		col, ok := b.Column(fn.Column)
		if !ok {
			return nil, evaluationErrorf(fn.String(), fn.Column, "no such column")
		}
		p.target = col
	}
	var err error
	if p.outType, err = fn.resultType(p.target); err != nil {
		return nil, err
	}
	if fn.Default != nil {
		if _, err := batch.ColumnOf("default", p.outType, fn.Default); err != nil {
			return nil, &EvaluationError{Function: fn.String(), Column: fn.Column, Reason: "default does not fit the column", Cause: err}
		}
	}

	if len(spec.orderBy) > 0 {
		if p.rc, err = newRowComparer(b, spec.orderBy); err != nil {
			return nil, err
		}
	}
	if p.frame.Mode == Range && p.frame.hasOffsets() && fn.Kind.AcceptsFrame() {
		col, _ := b.Column(spec.orderBy[0].Column)
		if !col.Type().Measurable() {
			return nil, evaluationErrorf(fn.String(), col.Name(),
				"RANGE offsets need a numeric or timestamp order key, got %s", col.Type())
		}
	}
	return p, nil
}

// evaluateInto orders one partition, evaluates it and stores each result at
// its original batch row in out.
func (p *evalPlan) evaluateInto(rows []int, out []interface{}) error {
	ordered, vals, err := p.evaluate(rows)
	if err != nil {
		return err
	}
	for i, row := range ordered {
		out[row] = vals[i]
	}
	return nil
}

// evaluate returns the partition in window order and one value per position.
func (p *evalPlan) evaluate(rows []int) ([]int, []interface{}, error) {
	ordered, err := OrderRows(p.batch, rows, p.spec.orderBy)
	if err != nil {
		return nil, nil, err
	}
	vals := make([]interface{}, len(ordered))

	switch p.fn.Kind {
	case RowNumber:
		for i := range vals {
			vals[i] = int64(i + 1)
		}
	case Rank:
		peers := computePeers(p.rc, ordered)
		for i := range vals {
			vals[i] = int64(peers.start[i] + 1)
		}
	case DenseRank:
		peers := computePeers(p.rc, ordered)
		rank := int64(0)
		for i := range vals {
			if peers.start[i] == i {
				rank++
			}
			vals[i] = rank
		}
	case NTile:
		ntile(vals, int64(p.fn.N))
	case Lag, Lead:
		step := -p.fn.Offset
		if p.fn.Kind == Lead {
			step = p.fn.Offset
		}
		for i := range vals {
			j := i + step
			if j < 0 || j >= len(ordered) {
				vals[i] = p.fn.Default
				continue
			}
			vals[i] = p.target.Value(ordered[j])
		}
	default:
		if err := p.evaluateFramed(ordered, vals); err != nil {
			return nil, nil, err
		}
	}
	return ordered, vals, nil
}

// ntile splits the partition into n buckets whose sizes differ by at most
// one, larger buckets first. With more buckets than rows each row gets its
// own bucket.
func ntile(vals []interface{}, n int64) {
	rowCount := int64(len(vals))
	if n > rowCount {
		for i := range vals {
			vals[i] = int64(i + 1)
		}
		return
	}
	tileSize := rowCount / n
	remainder := rowCount % n

	tile := int64(1)
	inTile := int64(0)
	size := tileSize
	if remainder > 0 {
		size++
	}
	for i := range vals {
		if inTile >= size {
			tile++
			inTile = 0
			size = tileSize
			if tile <= remainder {
				size++
			}
		}
		vals[i] = tile
		inTile++
	}
}

func (p *evalPlan) evaluateFramed(ordered []int, vals []interface{}) error {
	var peers peerGroups
	if p.frame.Mode == Range {
		peers = computePeers(p.rc, ordered)
	}
	fr, err := newFrameResolver(p.batch, ordered, p.spec.orderBy, p.frame, peers)
	if err != nil {
		return err
	}

	if p.fn.Kind.IsAggregate() {
		acc := newAccumulator(p.fn.Kind, p.target)
		if sum, ok := acc.(*sumAcc); ok && p.target.Type() == batch.Float64 && p.frame.Start.Type != UnboundedPreceding {
			sum.tree = newSumTree(p.target, ordered)
		}
		sf := slidingFrame{acc: acc, ordered: ordered}
		for i := range vals {
			lo, hi := fr.Next(i)
			sf.moveTo(lo, hi)
			vals[i] = sf.result()
		}
		return nil
	}

	for i := range vals {
		lo, hi := fr.Next(i)
		pos := -1
		switch p.fn.Kind {
		case First:
			pos = lo
		case Last:
			pos = hi
		case NthValue:
			pos = lo + p.fn.N - 1
		}
		if lo > hi || pos < lo || pos > hi {
			vals[i] = nil
			continue
		}
		vals[i] = p.target.Value(ordered[pos])
	}
	return nil
}
