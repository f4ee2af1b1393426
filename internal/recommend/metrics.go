package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewise",
		Subsystem: "engine",
		Name:      "requests_total",
		Help:      "Recommendation requests by result.",
	}, []string{"result"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nodewise",
		Subsystem: "engine",
		Name:      "request_duration_seconds",
		Help:      "Time spent producing recommendations.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	strategyCandidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewise",
		Subsystem: "engine",
		Name:      "strategy_candidates_total",
		Help:      "Candidates produced per strategy before merging.",
	}, []string{"strategy"})
)
