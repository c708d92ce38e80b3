package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for one run.
type Metrics struct {
	ObservationsProcessed prometheus.Counter
	ReadFailures          prometheus.Counter
	StationsProcessed     *prometheus.CounterVec // labels: class={core,remote,international}
	ClassPasses           *prometheus.CounterVec // labels: class
	RunDuration           prometheus.Gauge
	LastRunTimestamp      prometheus.Gauge

	// Registry holds every metric above.
	Registry *prometheus.Registry
}

// NewMetrics creates all run metrics on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flagmetrics",
			Name:      "observations_processed_total",
			Help:      "Calibrator observations aggregated and evaluated.",
		}),
		ReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flagmetrics",
			Name:      "report_read_failures_total",
			Help:      "Calibrator summaries skipped because they could not be read or parsed.",
		}),
		StationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagmetrics",
			Name:      "stations_processed_total",
			Help:      "Station records aggregated, by station class.",
		}, []string{"class"}),
		ClassPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagmetrics",
			Name:      "class_passes_total",
			Help:      "Observations passing the threshold policy, by station class.",
		}, []string{"class"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flagmetrics",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last complete run.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flagmetrics",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		Registry: prometheus.NewRegistry(),
	}

	m.Registry.MustRegister(
		m.ObservationsProcessed,
		m.ReadFailures,
		m.StationsProcessed,
		m.ClassPasses,
		m.RunDuration,
		m.LastRunTimestamp,
	)

	return m
}

// WriteTextfile writes every registered metric in the text exposition format,
// for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
