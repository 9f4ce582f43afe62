package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trendalarm"

// Batch outcomes
const (
	BatchRun     = "run"
	BatchSkipped = "skipped"
	BatchFailed  = "failed"
)

// Device and alarm results
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	AlarmPublished = "published"
	AlarmFailed    = "failed"
)

// Metrics holds the pipeline collectors
type Metrics struct {
	Batches       *prometheus.CounterVec
	Devices       *prometheus.CounterVec
	Alarms        *prometheus.CounterVec
	Forecasts     *prometheus.CounterVec
	BatchDuration prometheus.Histogram
	LastBatch     prometheus.Gauge
}

// New registers the collectors with reg. A nil reg yields working but
// unexported collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Batches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Poll cycles by outcome",
			},
			[]string{"outcome"},
		),
		Devices: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "devices_processed_total",
				Help:      "Devices processed by result",
			},
			[]string{"result"},
		),
		Alarms: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alarms_total",
				Help:      "Alarm publishes by result",
			},
			[]string{"result"},
		),
		Forecasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecast_points_total",
				Help:      "Classified forecast points by variable and status",
			},
			[]string{"variable", "status"},
		),
		BatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Duration of executed batches",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900},
			},
		),
		LastBatch: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_batch_timestamp_seconds",
				Help:      "Unix time the last batch finished",
			},
		),
	}
}

// Batch records the outcome of one poll cycle
func (m *Metrics) Batch(outcome string, started time.Time) {
	m.Batches.WithLabelValues(outcome).Inc()

	if outcome == BatchRun {
		m.BatchDuration.Observe(time.Since(started).Seconds())
		m.LastBatch.SetToCurrentTime()
	}
}

// Device records one processed device
func (m *Metrics) Device(success bool) {
	if success {
		m.Devices.WithLabelValues(ResultSuccess).Inc()
		return
	}
	m.Devices.WithLabelValues(ResultFailure).Inc()
}

// Alarm records one publish attempt
func (m *Metrics) Alarm(published bool) {
	if published {
		m.Alarms.WithLabelValues(AlarmPublished).Inc()
		return
	}
	m.Alarms.WithLabelValues(AlarmFailed).Inc()
}

// Forecast records one classified point
func (m *Metrics) Forecast(variable, status string) {
	m.Forecasts.WithLabelValues(variable, status).Inc()
}
