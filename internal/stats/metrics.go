package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// degradedReads counts stats reads answered empty because the backend failed
var degradedReads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nodewise_stats_degraded_reads_total",
	Help: "Stats reads that failed and were treated as no evidence",
}, []string{"read"})
