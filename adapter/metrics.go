package adapter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gateway",
		Subsystem: "adapter",
		Name:      "call_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"adapter"})
	CallResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "adapter",
		Name:      "call_results_total",
	}, []string{"adapter", "status"})
)

func ObserveDuration(name string) func() time.Duration {
	return prometheus.NewTimer(CallDurations.WithLabelValues(name)).ObserveDuration
}

func ObserveError(name string, err error) {
	if err != nil {
		CallResults.WithLabelValues(name, errorKind(err)).Inc()
	} else {
		CallResults.WithLabelValues(name, "ok").Inc()
	}
}

type instrumentedHandler struct {
	Handler
	name string
}

func (h *instrumentedHandler) UnifiedCall(ctx context.Context, req Request) (interface{}, error) {
	defer ObserveDuration(h.name)()
	resp, err := h.Handler.UnifiedCall(ctx, req)
	ObserveError(h.name, err)
	return resp, err
}
