// Package telemetry owns the prometheus collectors for the service. All
// collectors live on a dedicated registry so tests and embedded use never
// collide with the global default registry.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesintel"

var registry = prometheus.NewRegistry()

var (
	queriesTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Questions answered, by intent.",
	}, []string{"intent"})

	rejectedQueriesTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_queries_total",
		Help:      "Questions rejected by the intent guardrail.",
	})

	narrativesTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "narratives_total",
		Help:      "Narratives produced, by source (deterministic, delegated, fallback).",
	}, []string{"source"})

	narrativeLatency = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "narrative_service_seconds",
		Help:      "Latency of delegated narrative calls.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	}, []string{"outcome"})

	httpRequestsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpRequestDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	dealsLoaded = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "deals_loaded",
		Help:      "Deals kept after cleaning in the current session.",
	})

	healthScore = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pipeline_health_score",
		Help:      "Pipeline health score of the current session.",
	})

	highRiskShare = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "high_risk_share",
		Help:      "Fraction of deals in the high risk band.",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Registry exposes the service registry.
func Registry() *prometheus.Registry { return registry }

// Handler serves the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// RecordQuery counts an answered question.
func RecordQuery(intent string) { queriesTotal.WithLabelValues(intent).Inc() }

// RecordRejectedQuery counts an out-of-scope question.
func RecordRejectedQuery() { rejectedQueriesTotal.Inc() }

// RecordNarrative counts a narrative by the path that produced it.
func RecordNarrative(source string) { narrativesTotal.WithLabelValues(source).Inc() }

// ObserveNarrativeLatency records a delegated call duration; outcome is "ok" or "error".
func ObserveNarrativeLatency(seconds float64, outcome string) {
	narrativeLatency.WithLabelValues(outcome).Observe(seconds)
}

// RecordHTTPRequest counts one request and its duration.
func RecordHTTPRequest(route, method string, status int, seconds float64) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(seconds)
}

// SetSessionGauges publishes the headline numbers of a freshly built session.
func SetSessionGauges(deals int, health, highRisk float64) {
	dealsLoaded.Set(float64(deals))
	healthScore.Set(health)
	highRiskShare.Set(highRisk)
}
