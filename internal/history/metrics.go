package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	visitsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "histstore_visits_recorded_total",
		Help: "Total number of visits written to the history store",
	}, []string{"type"})

	visitsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "histstore_visits_dropped_total",
		Help: "Total number of visits not recorded because the recording policy excludes their type",
	}, []string{"type"})

	operationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "histstore_operation_failures_total",
		Help: "Total number of engine operations that failed and returned an empty result",
	}, []string{"op"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "histstore_operation_duration_seconds",
		Help:    "Duration of engine operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100µs to ~1.6s
	}, []string{"op"})
)
