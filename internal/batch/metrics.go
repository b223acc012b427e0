package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-run counters on a private registry and writes them in
// the node exporter textfile format.
type Metrics struct {
	registry     *prometheus.Registry
	textfilePath string

	records     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	bytes       prometheus.Counter
	uploadTime  prometheus.Histogram
	lastRun     prometheus.Gauge
	lastSuccess prometheus.Gauge
	retryRows   prometheus.Gauge
}

// NewMetrics builds a metrics set. An empty textfilePath disables Flush.
func NewMetrics(textfilePath string) *Metrics {
	m := &Metrics{
		registry:     prometheus.NewRegistry(),
		textfilePath: textfilePath,
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archivist",
			Name:      "records_total",
			Help:      "Source records that reached a terminal state.",
		}, []string{"state"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archivist",
			Name:      "record_failures_total",
			Help:      "Failed records by error kind.",
		}, []string{"kind"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "archivist",
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted by the archive.",
		}),
		uploadTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "archivist",
			Name:      "upload_duration_seconds",
			Help:      "Wall time of one item upload.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "archivist",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last batch finished.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "archivist",
			Name:      "last_run_succeeded_records",
			Help:      "Records uploaded by the last batch.",
		}),
		retryRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "archivist",
			Name:      "last_run_retry_records",
			Help:      "Records carried into the retry artifact by the last batch.",
		}),
	}
	m.registry.MustRegister(m.records, m.failures, m.bytes, m.uploadTime, m.lastRun, m.lastSuccess, m.retryRows)
	return m
}

// Registry exposes the underlying registry for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) observe(outcome Outcome) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(outcome.State.String()).Inc()
	if outcome.State == StateFailed {
		m.failures.WithLabelValues(string(outcome.Kind)).Inc()
	}
	if outcome.State == StateSucceeded {
		m.bytes.Add(float64(outcome.Bytes))
	}
	if outcome.UploadTime > 0 {
		m.uploadTime.Observe(outcome.UploadTime.Seconds())
	}
}

func (m *Metrics) finish(result Result, at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(at.Unix()))
	m.lastSuccess.Set(float64(result.Count(StateSucceeded)))
	m.retryRows.Set(float64(result.Retry.Len()))
}

// Flush writes the registry to the configured textfile.
func (m *Metrics) Flush() error {
	if m == nil || m.textfilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.textfilePath), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(m.textfilePath, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
