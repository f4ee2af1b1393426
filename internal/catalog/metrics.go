package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// refreshTotal counts catalog loads by outcome: ok, degraded, failed
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodewise_catalog_refresh_total",
		Help: "Catalog load attempts by result",
	}, []string{"result"})

	nodesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodewise_catalog_nodes",
		Help: "Number of node types in the current catalog snapshot",
	})
)
