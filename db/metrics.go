package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueryDurations is labeled with the repository method that issued the query.
var QueryDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "gateway",
	Subsystem: "db",
	Name:      "query_duration_seconds",
	Help:      "Report store query latency partitioned by repository method.",
	Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5, 1, 2},
}, []string{"query"})

func ObserveDuration(query string) func() time.Duration {
	return prometheus.NewTimer(QueryDurations.WithLabelValues(query)).ObserveDuration
}
