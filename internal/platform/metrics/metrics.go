package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the per-run Prometheus metrics. A CLI run is too short to be
// scraped, so the registry is private and dumped with WriteTextfile.
type Metrics struct {
	registry *prometheus.Registry

	StepRequests *prometheus.CounterVec   // calls per step and outcome
	StepDuration *prometheus.HistogramVec // wall time per step
	RunSucceeded prometheus.Gauge         // 1 when every step completed
	ImageBytes   prometheus.Gauge         // size of the uploaded photo
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StepRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "photoenrol_step_requests_total",
			Help: "Outbound iProov calls by step and outcome",
		}, []string{"step", "outcome"}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photoenrol_step_duration_seconds",
			Help:    "Duration of outbound iProov calls by step",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"step"}),
		RunSucceeded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "photoenrol_run_success",
			Help: "1 if the last run completed every step, 0 otherwise",
		}),
		ImageBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "photoenrol_image_bytes",
			Help: "Size in bytes of the photo uploaded by the last run",
		}),
	}
}

// ObserveStep records one outbound call.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.StepRequests.WithLabelValues(step, outcome).Inc()
	m.StepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// SetRunResult records whether the run as a whole succeeded.
func (m *Metrics) SetRunResult(err error) {
	if err != nil {
		m.RunSucceeded.Set(0)
		return
	}
	m.RunSucceeded.Set(1)
}

// SetImageBytes records the uploaded photo size.
func (m *Metrics) SetImageBytes(n int) {
	m.ImageBytes.Set(float64(n))
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the registry in the Prometheus text format, suitable
// for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
