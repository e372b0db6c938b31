package window

import (
	"github.com/vegasq/winframe/batch"
)

// Partition is the set of rows sharing one partition-key tuple.
type Partition struct {
	// Key holds the tuple's values in partition-key order; nil for nulls.
	Key []interface{}
	// Rows holds batch row indices in original batch order.
	Rows []int
}

// PartitionRows groups the rows of b by the values of the key columns.
//
// Nulls are equal to each other, so all rows with a null key component fall
// in the same group. Partitions are returned in order of first appearance.
// With no keys the whole batch is one partition; that single group is as
// expensive as it looks and is not optimized away.
func PartitionRows(b *batch.Batch, keys []string) ([]Partition, error) {
	cols, err := lookupColumns(b, keys, "partition")
	if err != nil {
		return nil, err
	}

	n := b.NumRows()
	if len(cols) == 0 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return []Partition{{Rows: rows}}, nil
	}

	var (
		parts []Partition
		index = make(map[string]int)
		buf   []byte
	)
	for i := 0; i < n; i++ {
		buf = buf[:0]
		for _, c := range cols {
			buf = c.AppendKey(buf, i)
		}
		p, ok := index[string(buf)]
		if !ok {
			p = len(parts)
			index[string(buf)] = p
			key := make([]interface{}, len(cols))
			for j, c := range cols {
				key[j] = c.Value(i)
			}
			parts = append(parts, Partition{Key: key})
		}
		parts[p].Rows = append(parts[p].Rows, i)
	}
	return parts, nil
}

func lookupColumns(b *batch.Batch, names []string, what string) ([]*batch.Column, error) {
	cols := make([]*batch.Column, len(names))
	for i, name := range names {
		c, ok := b.Column(name)
		if !ok {
			return nil, evaluationErrorf(what, name, "no such column")
		}
		cols[i] = c
	}
	return cols, nil
}
