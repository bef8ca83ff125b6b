// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClusterOperationsTotal counts administrative SQL operations against the
	// target cluster by operation and outcome.
	ClusterOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nidhi_cluster_operations_total",
		Help: "Total number of cluster admin operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// ClusterOperationLatency records cluster admin operation latency.
	ClusterOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nidhi_cluster_operation_latency_seconds",
		Help:    "Cluster admin operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// RequestTransitionsTotal counts provisioning request state transitions.
	RequestTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nidhi_request_transitions_total",
		Help: "Total number of provisioning request state transitions",
	}, []string{"transition"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nidhi_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// ObserveClusterOperation records one cluster admin call.
func ObserveClusterOperation(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ClusterOperationsTotal.WithLabelValues(operation, outcome).Inc()
	ClusterOperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordTransition records a provisioning request state transition.
func RecordTransition(transition string) {
	RequestTransitionsTotal.WithLabelValues(transition).Inc()
}
