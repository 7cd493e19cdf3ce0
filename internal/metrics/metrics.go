package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome and result label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// Generation
	GenerationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extgen_generation_requests_total",
			Help: "Total number of generation calls sent to the AI provider",
		},
		[]string{"provider"},
	)
	GenerationResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extgen_generation_results_total",
			Help: "Generation calls by provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: success|failure
	)
	GenerationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extgen_generation_failures_total",
			Help: "Failed generations by failure kind",
		},
		[]string{"kind"},
	)
	GenerationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extgen_generation_duration_seconds",
			Help:    "Duration of generation calls",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9), // 1s..256s
		},
		[]string{"provider"},
	)
	GenerationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "extgen_generations_in_flight",
			Help: "Generation calls currently awaiting the provider",
		},
	)

	// Export
	Exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extgen_exports_total",
			Help: "Exports by format and result",
		},
		[]string{"format", "result"}, // format: zip|unpacked
	)

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extgen_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)
	HTTPDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extgen_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		GenerationRequests,
		GenerationResults,
		GenerationFailures,
		GenerationDurationSeconds,
		GenerationsInFlight,
		Exports,
		HTTPRequests,
		HTTPDurationSeconds,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Generation
func IncGenerationRequest(provider string) {
	GenerationRequests.WithLabelValues(provider).Inc()
}

func ObserveGeneration(provider, outcome string, d time.Duration) {
	GenerationResults.WithLabelValues(provider, outcome).Inc()
	GenerationDurationSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

func IncGenerationFailure(kind string) {
	GenerationFailures.WithLabelValues(kind).Inc()
}

func IncGenerationsInFlight() {
	GenerationsInFlight.Inc()
}

func DecGenerationsInFlight() {
	GenerationsInFlight.Dec()
}

// Export
func IncExport(format string, err error) {
	result := OutcomeSuccess
	if err != nil {
		result = OutcomeFailure
	}
	Exports.WithLabelValues(format, result).Inc()
}

// HTTP
func ObserveHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, path, status).Inc()
	HTTPDurationSeconds.WithLabelValues(method, path).Observe(d.Seconds())
}
