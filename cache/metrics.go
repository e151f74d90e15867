package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Signature cache lookups partitioned by the observed entry state.",
	}, []string{"result"})

	Waits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "cache",
		Name:      "pending_waits_total",
		Help:      "Outcomes of waiting on a pending entry owned by a concurrent request.",
	}, []string{"result"})
)
