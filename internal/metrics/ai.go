package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiCallTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillatlas",
			Subsystem: "ai",
			Name:      "provider_calls_total",
			Help:      "Completion provider calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	aiCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skillatlas",
			Subsystem: "ai",
			Name:      "provider_call_duration_seconds",
			Help:      "Completion provider call latency in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
)

// ObserveAICall records one provider call.
func ObserveAICall(provider string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	aiCallTotal.WithLabelValues(provider, outcome).Inc()
	aiCallDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}
