package transport

import "github.com/prometheus/client_golang/prometheus"

var (
	metricHTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_http_requests_total",
			Help: "Total number of requests sent to the compiler service.",
		},
		[]string{"endpoint", "method"},
	)

	metricHTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_http_request_duration_seconds",
			Help:    "Latency of requests, including reading the response body.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	metricHTTPErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_http_request_errors",
			Help: "Total number of requests that failed before a response body was read.",
		},
		[]string{"endpoint", "method"},
	)
)

func init() {
	// Register metrics with Prometheus
	prometheus.MustRegister(metricHTTPRequests, metricHTTPLatency, metricHTTPErrors)
}
