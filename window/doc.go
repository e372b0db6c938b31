// Package window evaluates SQL-style window functions over a batch.Batch.
//
// This package implements:
//   - Window specs with PARTITION BY, ORDER BY and ROWS or RANGE frames
//   - Partitioning by key tuples, nulls grouped together
//   - Stable multi-key ordering with configurable null placement
//   - Frame resolution with an incremental two-pointer sweep
//   - Aggregates (SUM, AVG, MIN, MAX, COUNT) over sliding frames
//   - Ranking (ROW_NUMBER, RANK, DENSE_RANK, NTILE)
//   - Offset and value functions (LAG, LEAD, FIRST, LAST, NTH_VALUE)
//   - Parallel evaluation of partitions on a worker pool
//
// # Basic Usage
//
// Build a spec, then evaluate a function over it:
//
//	spec, err := window.Build(
//	    []string{"region"},
//	    []window.OrderKey{window.Asc("day")},
//	    window.RowsBetween(window.UnboundedPrecedingBound, window.CurrentRowBound),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := window.NewEngine(window.WithWorkers(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	running, err := eng.Evaluate(ctx, b, spec, window.Aggregate(window.Sum, "sales"))
//
// The result column aligns row for row with the input batch. Apply evaluates
// several named expressions and returns the batch with the new columns added.
//
// # Frames
//
// Frame-aware functions (aggregates, FIRST, LAST, NTH_VALUE) see a frame per
// row. Without an explicit frame an ordered window uses
//
//	RANGE BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW
//
// which includes the current row's peers, so LAST returns the current row's
// own order value. An unordered window sees the whole partition.
//
// ROWS offsets count rows. RANGE offsets are distances on the single order
// key, in seconds for timestamp keys. A frame whose edges fall outside the
// partition is empty: SUM and COUNT return 0 and every other function
// returns null.
//
// # Nulls
//
// Nulls partition together and are peers of each other. Unless an order key
// says otherwise they sort first ascending and last descending
// (NullsSmallest); Builder.Nulls switches to NullsLargest.
//
// # Errors
//
// Build and Function.Validate return *ValidationError. Problems that only
// show against a batch, such as a missing column or a RANGE offset over a
// string key, are *EvaluationError. The engine reports the first error and
// returns no partial result.
package window
