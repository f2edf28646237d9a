package tree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cascadeRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tree_cascade_removed_total",
			Help: "Records removed by cascading folder deletes.",
		},
		[]string{"kind"},
	)

	cascadeSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tree_cascade_size",
			Help:    "Number of records removed by a single cascading delete.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	circularMovesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tree_circular_moves_rejected_total",
			Help: "Folder moves rejected because they would create a cycle.",
		},
	)

	searchFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tree_search_fallback_total",
			Help: "Searches served by the database because the search index failed.",
		},
	)
)
