// Package metrics records batch processing counters with Prometheus.
//
// The tool is a batch job, not a server, so metrics are written once at the
// end of a batch in the node-exporter textfile format (WriteTextfile)
// rather than scraped.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "swptool"

// Metrics holds the batch collectors.
type Metrics struct {
	registry *prometheus.Registry

	RunsProcessed *prometheus.CounterVec
	RunsSkipped   *prometheus.CounterVec
	SlicesEmitted prometheus.Counter
	Messages      prometheus.Counter
	RunDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runs",
				Name:      "processed_total",
				Help:      "Total number of run stores processed successfully",
			},
			[]string{"mode"},
		),

		RunsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runs",
				Name:      "skipped_total",
				Help:      "Total number of run stores skipped",
			},
			[]string{"mode", "op"},
		),

		SlicesEmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "slices",
				Name:      "emitted_total",
				Help:      "Total number of feature rows emitted",
			},
		),

		Messages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "messages",
				Name:      "counted_total",
				Help:      "Total number of messages counted across processed runs",
			},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "runs",
				Name:      "duration_seconds",
				Help:      "Wall time spent analysing one run store",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"mode"},
		),
	}

	m.registry.MustRegister(
		m.RunsProcessed,
		m.RunsSkipped,
		m.SlicesEmitted,
		m.Messages,
		m.RunDuration,
	)
	return m
}

// Registry returns the registry holding the batch collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RunProcessed records a successful run.
func (m *Metrics) RunProcessed(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsProcessed.WithLabelValues(mode).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RunSkipped records a run excluded from output.
func (m *Metrics) RunSkipped(mode, op string) {
	if m == nil {
		return
	}
	m.RunsSkipped.WithLabelValues(mode, op).Inc()
}

// SliceEmitted records one feature row.
func (m *Metrics) SliceEmitted() {
	if m == nil {
		return
	}
	m.SlicesEmitted.Inc()
}

// MessagesCounted adds n to the message counter.
func (m *Metrics) MessagesCounted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.Messages.Add(float64(n))
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text exposition format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
