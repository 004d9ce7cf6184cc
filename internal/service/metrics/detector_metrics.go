package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	DetectorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slinky",
			Subsystem: "detector",
			Name:      "latency_seconds",
			Help:      "Latency of inference calls by outcome",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	DetectorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slinky",
			Subsystem: "detector",
			Name:      "errors_total",
			Help:      "Failed inference calls by reason",
		},
		[]string{"reason"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "slinky",
			Subsystem: "detector",
			Name:      "breaker_state",
			Help:      "Circuit breaker state of external services",
		},
		[]string{"breaker"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(DetectorLatency, DetectorErrors, BreakerState)
	})
}
