package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_report"

// Metrics holds the Prometheus counters, histograms, and gauges for one job run.
type Metrics struct {
	CitiesRequested  prometheus.Counter
	RecordsFetched   prometheus.Counter
	FetchErrors      *prometheus.CounterVec // labels: reason={request,status,decode,missing_field}
	FetchDuration    prometheus.Histogram
	DatasetConflicts prometheus.Counter
	DatasetRecords   prometheus.Gauge
	PublishErrors    *prometheus.CounterVec // labels: sink={kafka,archive}
	LastRunSuccess   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates all job metrics and registers them with the default
// Prometheus registry, so the /metrics handler also exposes Go runtime metrics.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// WriteTextfile dumps the current metric values in the node_exporter textfile
// format. The file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Gatherer())
}

func newMetrics() *Metrics {
	return &Metrics{
		CitiesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cities_requested_total",
			Help:      "Cities for which a current-weather request was issued.",
		}),
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Cities that produced a complete weather record.",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Per-city fetch failures by reason.",
		}, []string{"reason"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "OpenWeatherMap request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DatasetConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_conflicts_total",
			Help:      "Runs that found an existing dataset file and skipped writing.",
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Rows in the dataset analyzed by the last run.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failures delivering records to optional sinks.",
		}, []string{"sink"}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when the last run completed, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CitiesRequested,
		m.RecordsFetched,
		m.FetchErrors,
		m.FetchDuration,
		m.DatasetConflicts,
		m.DatasetRecords,
		m.PublishErrors,
		m.LastRunSuccess,
	}
}
