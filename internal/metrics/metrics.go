package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BulkFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "windatlas_bulk_fetches_total",
			Help: "Total Meteostat bulk endpoint fetches",
		},
		[]string{"endpoint", "status"},
	)

	BulkFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "windatlas_bulk_fetch_latency_seconds",
			Help:    "Meteostat bulk fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ObservationsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "windatlas_observations_ingested_total",
			Help: "Total wind observations successfully ingested",
		},
		[]string{"station", "source"},
	)

	AtlasRowsBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windatlas_atlas_rows_built_total",
			Help: "Total atlas summary rows produced by build runs",
		},
	)
)
