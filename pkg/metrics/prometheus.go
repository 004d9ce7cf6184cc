package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"SlinkyTA/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal      *prometheus.CounterVec
	signalsTotal   *prometheus.CounterVec
	droppedTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	rangeTop       *prometheus.GaugeVec
	rangeBottom    *prometheus.GaugeVec
	stageDurations *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slinky_asset_runs_total",
				Help: "Pipeline runs per asset by result",
			},
			[]string{"asset", "result"},
		),
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slinky_signals_persisted_total",
				Help: "Signals written to the store",
			},
			[]string{"asset", "pattern"},
		),
		droppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slinky_detections_dropped_total",
				Help: "Detections that produced no signal",
			},
			[]string{"asset", "reason"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slinky_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		rangeTop: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slinky_calibrated_price_top",
				Help: "Highest visible axis price of the last snapshot",
			},
			[]string{"asset"},
		),
		rangeBottom: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slinky_calibrated_price_bottom",
				Help: "Lowest visible axis price of the last snapshot",
			},
			[]string{"asset"},
		),
		stageDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slinky_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(r.runsTotal, r.signalsTotal, r.droppedTotal, r.errorsTotal, r.rangeTop, r.rangeBottom, r.stageDurations)
	return r
}

// RecordRun counts one asset run; result is "ok" or an error kind.
func (r *Recorder) RecordRun(asset, result string) {
	r.runsTotal.WithLabelValues(asset, result).Inc()
}

// RecordSignal counts one persisted signal.
func (r *Recorder) RecordSignal(asset, pattern string) {
	r.signalsTotal.WithLabelValues(asset, pattern).Inc()
}

// RecordDropped counts one detection that produced no signal.
func (r *Recorder) RecordDropped(asset, reason string) {
	r.droppedTotal.WithLabelValues(asset, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPriceRange records the calibrated axis of the last snapshot.
func (r *Recorder) RecordPriceRange(asset string, pr models.PriceRange) {
	r.rangeTop.WithLabelValues(asset).Set(pr.Top)
	r.rangeBottom.WithLabelValues(asset).Set(pr.Bottom)
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.stageDurations.WithLabelValues(op).Observe(d.Seconds())
}
