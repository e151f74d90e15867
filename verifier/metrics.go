package verifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "verifier",
		Name:      "request_results_total",
	}, []string{"status"})

	RequestDurations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gateway",
		Subsystem: "verifier",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
	})
)

func ObserveDuration() func() time.Duration {
	return prometheus.NewTimer(RequestDurations).ObserveDuration
}

func ObserveError(err error) {
	if err == nil {
		RequestResults.WithLabelValues("ok").Inc()
		return
	}
	if e, ok := err.(*VerificationFailedError); ok {
		RequestResults.WithLabelValues(string(e.Kind)).Inc()
	} else {
		RequestResults.WithLabelValues("error").Inc()
	}
}
