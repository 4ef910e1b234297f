package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedeck",
		Name:      "upstream_requests_total",
		Help:      "Total number of requests sent to catalogue services",
	}, []string{"service", "outcome"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinedeck",
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests sent to catalogue services",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"service"})

	EnrichmentFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedeck",
		Name:      "enrichment_fetches_total",
		Help:      "Total number of fan-out fetches by enrichment kind and outcome",
	}, []string{"kind", "outcome"})

	EnrichmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinedeck",
		Name:      "enrichment_cycle_duration_seconds",
		Help:      "Duration of a full enrichment cycle including its join barrier",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"kind"})

	PageLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedeck",
		Name:      "page_loads_total",
		Help:      "Total number of settled page loads by route and result",
	}, []string{"route", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinedeck",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinedeck",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})

	TaskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedeck",
		Name:      "scheduled_task_runs_total",
		Help:      "Total number of scheduled task runs by task and outcome",
	}, []string{"task", "outcome"})

	UpstreamUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cinedeck",
		Name:      "upstream_up",
		Help:      "Whether the last health probe of a catalogue service succeeded",
	}, []string{"service"})
)

// Outcome labels shared by fetch counters.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)
