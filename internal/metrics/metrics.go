// Package metrics exports saturation run statistics to Prometheus.
//
// A Collector is an engine observer: attach it with engine.WithObserver and
// every finished pass and run updates its counters. Each Collector owns its
// registry so several can coexist in one process (and in tests).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/eqsat/internal/engine"
)

const (
	Namespace = "eqsat"

	StopReasonLabel = "stop_reason"
	RuleLabel       = "rule"
)

// Collector records run and pass statistics.
type Collector struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	iterations   prometheus.Counter
	matches      prometheus.Counter
	applied      prometheus.Counter
	unions       prometheus.Counter
	rejected     prometheus.Counter
	guardErrors  prometheus.Counter
	truncated    *prometheus.CounterVec
	nodes        prometheus.Gauge
	classes      prometheus.Gauge
	runDuration  prometheus.Histogram
	passDuration prometheus.Histogram
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates a Collector with its metrics registered on a fresh
// registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Saturation runs finished, by stop reason",
			},
			[]string{StopReasonLabel},
		),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "iterations_total",
			Help:      "Search/apply/rebuild passes completed",
		}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "matches_total",
			Help:      "Substitutions found by rule searches",
		}),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "applied_total",
			Help:      "Matches that passed their guards and were applied",
		}),
		unions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "unions_total",
			Help:      "E-class merges, including those found by rebuild",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "guard_rejections_total",
			Help:      "Matches whose guard returned false",
		}),
		guardErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "guard_errors_total",
			Help:      "Matches whose guard failed with an error",
		}),
		truncated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "truncated_searches_total",
				Help:      "Rule searches that hit the match limit",
			},
			[]string{RuleLabel},
		),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_nodes",
			Help:      "E-nodes in the graph after the latest pass",
		}),
		classes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_classes",
			Help:      "E-classes in the graph after the latest pass",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of saturation runs",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "iteration_duration_seconds",
			Help:      "Wall time of single passes",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	c.registry.MustRegister(
		c.runs,
		c.iterations,
		c.matches,
		c.applied,
		c.unions,
		c.rejected,
		c.guardErrors,
		c.truncated,
		c.nodes,
		c.classes,
		c.runDuration,
		c.passDuration,
	)
	return c
}

// Registry returns the collector's registry, for serving or gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// IterationDone implements engine.Observer.
func (c *Collector) IterationDone(_ string, it engine.Iteration) {
	c.iterations.Inc()
	c.matches.Add(float64(it.Matches))
	c.applied.Add(float64(it.Applied))
	c.unions.Add(float64(it.Unions))
	c.rejected.Add(float64(it.Rejected))
	c.guardErrors.Add(float64(it.GuardErrors))
	for _, rule := range it.Truncated {
		c.truncated.WithLabelValues(rule).Inc()
	}
	c.nodes.Set(float64(it.Nodes))
	c.classes.Set(float64(it.Classes))
	c.passDuration.Observe(it.Elapsed.Seconds())
}

// RunDone implements engine.Observer.
func (c *Collector) RunDone(report *engine.Report) {
	c.runs.WithLabelValues(string(report.StopReason)).Inc()
	c.nodes.Set(float64(report.Nodes))
	c.classes.Set(float64(report.Classes))
	c.runDuration.Observe(report.Elapsed.Seconds())
}

// WriteTextfile writes the current metrics in the text exposition format,
// for node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
