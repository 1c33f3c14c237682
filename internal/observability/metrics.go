package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	assessmentsRecorded *prometheus.CounterVec
	assessmentsRejected *prometheus.CounterVec
	resultsCacheLookups *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compass_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		assessmentsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_assessments_recorded_total",
			Help: "Assessments committed, by submission kind.",
		}, []string{"kind"})

		assessmentsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_assessments_rejected_total",
			Help: "Assessment recordings that failed, by error class.",
		}, []string{"reason"})

		resultsCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_results_cache_lookups_total",
			Help: "Assessment history cache lookups, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, assessmentsRecorded, assessmentsRejected, resultsCacheLookups)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// AssessmentsRecorded counts committed assessments.
func AssessmentsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentsRecorded
}

// AssessmentsRejected counts failed recordings.
func AssessmentsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentsRejected
}

// ResultsCacheLookups counts history cache hits and misses.
func ResultsCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsCacheLookups
}
