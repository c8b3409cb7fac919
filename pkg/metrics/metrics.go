// Package metrics exposes Prometheus collectors for the compiler and the
// virtual machine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics collectors
type Metrics struct {
	buildsTotal         *prometheus.CounterVec
	buildDuration       prometheus.Histogram
	buildErrorsTotal    *prometheus.CounterVec
	bytecodeBytes       prometheus.Histogram
	instructionsEmitted prometheus.Histogram

	vmRunsTotal         *prometheus.CounterVec
	vmInstructionsTotal prometheus.Counter
	vmRunDuration       prometheus.Histogram

	registry *prometheus.Registry
}

// Config holds configuration for metrics
type Config struct {
	Namespace string
	// Custom histogram buckets for durations (in seconds)
	DurationBuckets []float64
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Namespace:       "flare",
		DurationBuckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(config Config) *Metrics {
	if config.Namespace == "" {
		config = DefaultConfig()
	}
	if len(config.DurationBuckets) == 0 {
		config.DurationBuckets = DefaultConfig().DurationBuckets
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.buildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "compiler",
			Name:      "builds_total",
			Help:      "Total number of builds",
		},
		[]string{"status"},
	)
	m.buildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "compiler",
			Name:      "build_duration_seconds",
			Help:      "Time spent from source to bytecode",
			Buckets:   config.DurationBuckets,
		},
	)
	m.buildErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "compiler",
			Name:      "build_errors_total",
			Help:      "Build failures by stage",
		},
		[]string{"stage"},
	)
	m.bytecodeBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "compiler",
			Name:      "bytecode_bytes",
			Help:      "Size of emitted bytecode",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
	)
	m.instructionsEmitted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "compiler",
			Name:      "instructions_emitted",
			Help:      "Instruction count of compiled programs",
			Buckets:   prometheus.ExponentialBuckets(4, 4, 8),
		},
	)

	m.vmRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "vm",
			Name:      "runs_total",
			Help:      "Total VM executions",
		},
		[]string{"status"},
	)
	m.vmInstructionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "vm",
			Name:      "instructions_executed_total",
			Help:      "Instructions executed across all runs",
		},
	)
	m.vmRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "vm",
			Name:      "run_duration_seconds",
			Help:      "Wall time of VM executions",
			Buckets:   config.DurationBuckets,
		},
	)

	registry.MustRegister(
		m.buildsTotal,
		m.buildDuration,
		m.buildErrorsTotal,
		m.bytecodeBytes,
		m.instructionsEmitted,
		m.vmRunsTotal,
		m.vmInstructionsTotal,
		m.vmRunDuration,
	)
	return m
}

// RecordBuild records a completed build.
func (m *Metrics) RecordBuild(duration time.Duration, instructions, bytecodeSize int) {
	m.buildsTotal.WithLabelValues("success").Inc()
	m.buildDuration.Observe(duration.Seconds())
	m.instructionsEmitted.Observe(float64(instructions))
	m.bytecodeBytes.Observe(float64(bytecodeSize))
}

// RecordBuildError records a failed build. Stage is one of lex, parse,
// compile, encode.
func (m *Metrics) RecordBuildError(stage string) {
	m.buildsTotal.WithLabelValues("error").Inc()
	m.buildErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordRun records a VM execution.
func (m *Metrics) RecordRun(duration time.Duration, instructions int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.vmRunsTotal.WithLabelValues(status).Inc()
	m.vmInstructionsTotal.Add(float64(instructions))
	m.vmRunDuration.Observe(duration.Seconds())
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a metrics endpoint on addr. Blocks; run it on its own
// goroutine.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
