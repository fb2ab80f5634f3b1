package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons used as the "reason" label of LinesSkipped.
const (
	ReasonMalformed = "malformed"
	ReasonNumeric   = "numeric"
)

// Metrics holds the Prometheus counters, histograms, and gauges for an ingestion run.
type Metrics struct {
	LinesRead        prometheus.Counter
	RecordsApplied   prometheus.Counter
	LinesSkipped     *prometheus.CounterVec // labels: reason={malformed,numeric}
	FilesProcessed   prometheus.Counter
	FilesUnavailable prometheus.Counter
	StatesTracked    prometheus.Gauge

	FileIngestDuration prometheus.Histogram

	// Summary sink metrics.
	SinkWrites *prometheus.CounterVec // labels: sink={kafka,sqlite}, outcome={success,error}
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LinesRead,
		m.RecordsApplied,
		m.LinesSkipped,
		m.FilesProcessed,
		m.FilesUnavailable,
		m.StatesTracked,
		m.FileIngestDuration,
		m.SinkWrites,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// WriteTextfile dumps the default registry in the Prometheus text format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func newMetrics() *Metrics {
	return &Metrics{
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate",
			Name:      "lines_read_total",
			Help:      "Total non-blank lines read from all sources.",
		}),
		RecordsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate",
			Name:      "records_applied_total",
			Help:      "Total observations folded into the aggregate store.",
		}),
		LinesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate",
			Name:      "lines_skipped_total",
			Help:      "Lines that failed to decode, by reason.",
		}, []string{"reason"}),
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate",
			Name:      "files_processed_total",
			Help:      "Sources opened and ingested.",
		}),
		FilesUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate",
			Name:      "files_unavailable_total",
			Help:      "Sources that could not be opened.",
		}),
		StatesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate",
			Name:      "states_tracked",
			Help:      "Distinct state codes in the aggregate store.",
		}),
		FileIngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate",
			Name:      "file_ingest_duration_seconds",
			Help:      "Wall time spent ingesting one source.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate",
			Name:      "sink_writes_total",
			Help:      "Summary exports by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}
