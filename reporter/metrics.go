package reporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "reports_dropped_total",
	})
	ReportsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "reports",
		Name:      "written_total",
	}, []string{"status"})
	ReportsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "reports",
		Name:      "purged_total",
	})
)
