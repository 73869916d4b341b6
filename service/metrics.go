package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	closureSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wts_closure_syncs_total",
		Help: "Closure syncs by result",
	}, []string{"result"})

	closureSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wts_closure_sync_duration_seconds",
		Help:    "Duration of one component sync",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	closureArcsChanged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wts_closure_arcs_changed_total",
		Help: "Closure rows written by sync, by operation",
	}, []string{"op"})

	componentSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wts_closure_component_nodes",
		Help:    "Number of nodes in each synced component",
		Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000, 5000},
	})

	cycleRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wts_cycle_rejections_total",
		Help: "Dependency updates refused because they would create a cycle",
	})

	queryCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wts_query_cache_total",
		Help: "Transitive query cache lookups by result",
	}, []string{"result"})

	rebuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wts_closure_rebuild_duration_seconds",
		Help:    "Duration of a full closure rebuild per relationship type",
		Buckets: []float64{0.01, 0.1, 1, 10, 60, 300},
	}, []string{"trigger"})
)
