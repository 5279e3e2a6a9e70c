// Package observability provides Prometheus metrics and echo middleware
// for monitoring the AI relay.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM latencies, from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts HTTP requests by route pattern, method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_ai_requests_total",
			Help: "Total requests",
		},
		[]string{"route", "method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobtracker_ai_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"route", "method"},
	)

	// StreamingConnections tracks relays currently forwarding a token stream.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobtracker_ai_streaming_connections_active",
			Help: "Active streaming relays",
		},
	)

	// StreamFragmentsTotal counts fragments written to downstream clients.
	StreamFragmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobtracker_ai_stream_fragments_total",
			Help: "Fragments forwarded",
		},
	)

	// ProviderRequestsTotal counts upstream calls by provider, model and outcome.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_ai_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records upstream latency in seconds. For streams it is the
	// time until the upstream accepted the call.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobtracker_ai_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ProviderTokensTotal counts tokens reported by buffered calls, by direction.
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_ai_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		StreamFragmentsTotal,
		ProviderRequestsTotal,
		ProviderLatency,
		ProviderTokensTotal,
	)
}
