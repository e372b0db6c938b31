package window

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/vegasq/winframe/batch"
)

// Recorder receives one observation per evaluated window expression.
type Recorder interface {
	ObserveEvaluation(fn string, partitions, rows int, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(string, int, int, time.Duration, error) {}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets how many partitions evaluate concurrently. One worker
// evaluates partitions in order on the calling goroutine.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics sets the engine's Recorder.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.rec = r
		}
	}
}

// Engine evaluates window functions over batches. Partitions of one
// evaluation run concurrently on a shared worker pool. An Engine is safe for
// concurrent use and must be closed.
type Engine struct {
	workers int
	pool    *ants.Pool
	log     *zap.Logger
	rec     Recorder
}

// NewEngine returns an Engine with GOMAXPROCS workers unless configured
// otherwise.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		workers: runtime.GOMAXPROCS(0),
		log:     zap.NewNop(),
		rec:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		return nil, errors.Newf("engine needs at least one worker, got %d", e.workers)
	}
	if e.workers > 1 {
		pool, err := ants.NewPool(e.workers, ants.WithPanicHandler(func(p interface{}) {
			e.log.Error("window task panicked outside recovery", zap.Any("panic", p))
		}))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create worker pool")
		}
		e.pool = pool
	}
	return e, nil
}

// Workers returns the configured concurrency.
func (e *Engine) Workers() int { return e.workers }

// Close releases the worker pool.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Expr names one window function applied over one window.
type Expr struct {
	Name string
	Spec Spec
	Func Function
}

// Evaluate computes fn over spec for every row of b. The returned column is
// named after the function call and aligns row for row with b.
func (e *Engine) Evaluate(ctx context.Context, b *batch.Batch, spec Spec, fn Function) (*batch.Column, error) {
	plan, err := newEvalPlan(b, spec, fn)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, plan, fn.String())
}

// Apply evaluates every expression against b and returns b extended with one
// column per expression. All expressions are checked before any is evaluated,
// and nothing is returned unless all of them succeed.
func (e *Engine) Apply(ctx context.Context, b *batch.Batch, exprs []Expr) (*batch.Batch, error) {
	plans := make([]*evalPlan, len(exprs))
	seen := make(map[string]bool, len(exprs))
	for i, x := range exprs {
		switch {
		case x.Name == "":
			return nil, validationErrorf(fmt.Sprintf("windows[%d].name", i), "must not be empty")
		case seen[x.Name]:
			return nil, validationErrorf(fmt.Sprintf("windows[%d].name", i), "%q used twice", x.Name)
		}
		seen[x.Name] = true
		if _, ok := b.Column(x.Name); ok {
			return nil, evaluationErrorf(x.Func.String(), x.Name, "output column already exists in the batch")
		}
		plan, err := newEvalPlan(b, x.Spec, x.Func)
		if err != nil {
			return nil, errors.Wrapf(err, "window %q", x.Name)
		}
		plans[i] = plan
	}

	out := b
	for i, plan := range plans {
		col, err := e.run(ctx, plan, exprs[i].Name)
		if err != nil {
			return nil, errors.Wrapf(err, "window %q", exprs[i].Name)
		}
		if out, err = out.WithColumn(col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) run(ctx context.Context, plan *evalPlan, name string) (*batch.Column, error) {
	start := time.Now()
	log := e.log.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("function", plan.fn.String()),
		zap.Stringer("window", plan.spec),
	)
	rows := plan.batch.NumRows()

	col, partitions, err := e.evaluate(ctx, plan, name)
	elapsed := time.Since(start)
	e.rec.ObserveEvaluation(plan.fn.Kind.String(), partitions, rows, elapsed, err)
	if err != nil {
		log.Error("window evaluation failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}
	log.Debug("window evaluated",
		zap.Int("partitions", partitions),
		zap.Int("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	return col, nil
}

func (e *Engine) evaluate(ctx context.Context, plan *evalPlan, name string) (*batch.Column, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	parts, err := PartitionRows(plan.batch, plan.spec.partitionBy)
	if err != nil {
		return nil, 0, err
	}
	out := make([]interface{}, plan.batch.NumRows())
	if err := e.evaluatePartitions(ctx, plan, parts, out); err != nil {
		return nil, len(parts), err
	}

	cb := batch.NewColumnBuilder(name, plan.outType)
	cb.SetNullable(true)
	cb.Grow(len(out))
	for _, v := range out {
		if err := cb.Append(v); err != nil {
			return nil, len(parts), &EvaluationError{Function: plan.fn.String(), Column: plan.fn.Column, Reason: "bad result value", Cause: err}
		}
	}
	return cb.Build(), len(parts), nil
}

func (e *Engine) evaluatePartitions(ctx context.Context, plan *evalPlan, parts []Partition, out []interface{}) error {
	if e.pool == nil || len(parts) < 2 {
		for _, p := range parts {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := plan.safeEvaluateInto(p.Rows, out); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}
	for _, p := range parts {
		if ctx.Err() != nil {
			break
		}
		rows := p.Rows
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := plan.safeEvaluateInto(rows, out); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(errors.Wrap(err, "failed to submit partition"))
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// safeEvaluateInto is evaluateInto with panics turned into errors.
func (p *evalPlan) safeEvaluateInto(rows []int, out []interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WithStack(&EvaluationError{
				Function: p.fn.String(),
				Column:   p.fn.Column,
				Reason:   fmt.Sprintf("panic: %v", r),
			})
		}
	}()
	return p.evaluateInto(rows, out)
}
