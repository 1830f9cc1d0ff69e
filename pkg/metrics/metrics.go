package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "barctl"

	metricLabelHandler    = "handler"
	metricLabelStatus     = "status"
	metricLabelResource   = "resource"
	metricLabelOperation  = "operation"
	metricLabelOutcome    = "outcome"
	metricLabelMethod     = "method"
	metricLabelResult     = "result"
	metricLabelCollection = "collection"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// OperationCounter counts managed operations by their outcome
	OperationCounter = newCounterVec(
		"operation_count",
		"Count of managed operations per resource, operation and outcome",
		metricLabelResource, metricLabelOperation, metricLabelOutcome,
	)
	// RemoteRequestCounter counts requests sent to the DSA server
	RemoteRequestCounter = newCounterVec(
		"remote_request_count",
		"Count of requests sent to the DSA server",
		metricLabelMethod, metricLabelResult,
	)
	// RemoteRequestDuration observe the duration of requests sent to the DSA server, retries included
	RemoteRequestDuration = newSummaryVec(
		"remote_request_duration_seconds",
		"Seconds spent on a DSA request including retries",
		metricLabelMethod, metricLabelResult,
	)
	// SnapshotFailedCounter count the number of failed attempts to store a collection snapshot
	SnapshotFailedCounter = newCounterVec(
		"snapshot_failed_count",
		"Number of failures to store a collection snapshot before a write",
		metricLabelCollection,
	)
	// ServiceRequestCounter count the number of requests for each tool route
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of requests for each tool route
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to unmarshal requests, execute an operation and marshal its reponses",
		metricLabelHandler, metricLabelStatus,
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
