// internal/utils/metrics.go
package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsync_operations_total",
			Help: "Total number of sync engine operations by outcome",
		},
		[]string{"operation", "status"},
	)
	remoteCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketsync_remote_call_duration_seconds",
			Help:    "Duration of remote transaction service calls",
			Buckets: prometheus.LinearBuckets(0, 0.2, 10),
		},
	)
	cacheReadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsync_cache_reads_total",
			Help: "Local cache reads by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(syncOperationCounter)
	prometheus.MustRegister(remoteCallDuration)
	prometheus.MustRegister(cacheReadCounter)
}

// MeasureRemoteCall times a single remote round-trip.
func MeasureRemoteCall(f func() error) error {
	start := time.Now()
	err := f()
	remoteCallDuration.Observe(time.Since(start).Seconds())
	return err
}

// RecordOperation counts a sync engine operation outcome.
func RecordOperation(operation string, err error) {
	if err != nil {
		syncOperationCounter.WithLabelValues(operation, "failed").Inc()
	} else {
		syncOperationCounter.WithLabelValues(operation, "success").Inc()
	}
}

// RecordCacheRead counts a cache hit or miss.
func RecordCacheRead(hit bool) {
	if hit {
		cacheReadCounter.WithLabelValues("hit").Inc()
	} else {
		cacheReadCounter.WithLabelValues("miss").Inc()
	}
}
