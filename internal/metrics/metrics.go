// Package metrics exposes window engine metrics through Prometheus.
package metrics

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Namespace prefixes every metric name.
const Namespace = "winframe"

// Collector records engine evaluations. It implements window.Recorder and
// keeps its own registry, so several collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	// EvaluationsTotal counts evaluations by function and status.
	EvaluationsTotal *prometheus.CounterVec
	// RowsTotal counts rows evaluated by function.
	RowsTotal *prometheus.CounterVec
	// Partitions is the partition count per evaluation.
	Partitions prometheus.Histogram
	// Duration is the wall time of one evaluation.
	Duration *prometheus.HistogramVec
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "evaluations_total",
				Help:      "Total number of window function evaluations",
			},
			[]string{"function", "status"},
		),
		RowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rows_total",
				Help:      "Total number of rows evaluated",
			},
			[]string{"function"},
		),
		Partitions: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "partitions",
				Help:      "Number of partitions per evaluation",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Window function evaluation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"function"},
		),
	}
	c.registry.MustRegister(c.EvaluationsTotal, c.RowsTotal, c.Partitions, c.Duration)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveEvaluation records one evaluation of fn. Failed evaluations only
// count towards EvaluationsTotal.
func (c *Collector) ObserveEvaluation(fn string, partitions, rows int, elapsed time.Duration, err error) {
	if err != nil {
		c.EvaluationsTotal.WithLabelValues(fn, "error").Inc()
		return
	}
	c.EvaluationsTotal.WithLabelValues(fn, "ok").Inc()
	c.RowsTotal.WithLabelValues(fn).Add(float64(rows))
	c.Partitions.Observe(float64(partitions))
	c.Duration.WithLabelValues(fn).Observe(elapsed.Seconds())
}

// Dump writes every metric in the Prometheus text exposition format.
func (c *Collector) Dump(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}
