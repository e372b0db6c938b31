package window

import (
	"slices"

	"github.com/vegasq/winframe/batch"
)

// rowComparer compares batch rows on a list of order keys.
type rowComparer struct {
	cols []*batch.Column
	keys []OrderKey
}

func newRowComparer(b *batch.Batch, keys []OrderKey) (*rowComparer, error) {
	names := make([]string, len(keys))
	resolved := make([]OrderKey, len(keys))
	for i, k := range keys {
		names[i] = k.Column
		resolved[i] = k.resolve(NullsSmallest)
	}
	cols, err := lookupColumns(b, names, "order")
	if err != nil {
		return nil, err
	}
	return &rowComparer{cols: cols, keys: resolved}, nil
}

// compare orders batch rows i and j.
func (rc *rowComparer) compare(i, j int) int {
	for k, c := range rc.cols {
		ni, nj := c.IsNull(i), c.IsNull(j)
		switch {
		case ni && nj:
			continue
		case ni || nj:
			// exactly one null
			if ni == rc.keys[k].nullsFirst() {
				return -1
			}
			return 1
		}
		r := c.Compare(i, j)
		if rc.keys[k].Desc {
			r = -r
		}
		if r != 0 {
			return r
		}
	}
	return 0
}

// peers reports whether batch rows i and j tie on every order key.
func (rc *rowComparer) peers(i, j int) bool {
	for _, c := range rc.cols {
		if !c.Equal(i, j) {
			return false
		}
	}
	return true
}

// OrderRows returns rows sorted by keys. The sort is stable, so rows that tie
// on every key keep their relative order from the input, and with no keys
// the result equals the input. rows is not modified.
func OrderRows(b *batch.Batch, rows []int, keys []OrderKey) ([]int, error) {
	out := slices.Clone(rows)
	if len(keys) == 0 {
		return out, nil
	}
	rc, err := newRowComparer(b, keys)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, rc.compare)
	return out, nil
}
