// Package metrics exposes Prometheus metrics for embedding runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var batchBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Config configures the metrics registry.
type Config struct {
	// ServiceName is added as a constant "service" label to every metric.
	ServiceName string
	// EnableDefaultCollectors registers Go runtime, process and build info collectors.
	EnableDefaultCollectors bool
}

// Metrics owns a registry and the embedding collectors. It implements
// embedding.Observer.
type Metrics struct {
	registry  *prometheus.Registry
	processed *prometheus.CounterVec
	batches   *prometheus.HistogramVec
	runs      *prometheus.CounterVec
	pending   *prometheus.GaugeVec
}

// New creates a registry with the embedding collectors registered.
func New(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	var reg prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registry)
	}

	if cfg.EnableDefaultCollectors {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m := &Metrics{
		registry: registry,
		processed: createCounterVec(
			"embedgen_records_processed_total",
			"Records processed by embedding runs, by entity kind and result.",
			[]string{"entity", "result"},
		),
		batches: createHistogramVec(
			"embedgen_batch_duration_seconds",
			"Wall time of one concurrent embedding batch.",
			[]string{"entity"},
			batchBuckets,
		),
		runs: createCounterVec(
			"embedgen_runs_total",
			"Embedding runs started, by entity kind.",
			[]string{"entity"},
		),
		pending: createGaugeVec(
			"embedgen_run_candidates",
			"Candidate records selected by the most recent run, by entity kind.",
			[]string{"entity"},
		),
	}
	reg.MustRegister(m.processed, m.batches, m.runs, m.pending)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted implements embedding.Observer.
func (m *Metrics) RunStarted(name entity.Name, candidates int) {
	m.runs.WithLabelValues(string(name)).Inc()
	m.pending.WithLabelValues(string(name)).Set(float64(candidates))
}

// RecordProcessed implements embedding.Observer.
func (m *Metrics) RecordProcessed(name entity.Name, outcome embedding.Outcome) {
	result := ResultSuccess
	if !outcome.Success {
		result = ResultFailure
	}
	m.processed.WithLabelValues(string(name), result).Inc()
}

// BatchCompleted implements embedding.Observer.
func (m *Metrics) BatchCompleted(name entity.Name, _ int, elapsed time.Duration) {
	m.batches.WithLabelValues(string(name)).Observe(elapsed.Seconds())
}

var _ embedding.Observer = (*Metrics)(nil)
