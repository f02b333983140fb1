package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the rotation service
type Metrics struct {
	registry prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business metrics
	swapsAppliedTotal    prometheus.Counter
	staleProposalsTotal  prometheus.Counter
	cycleRejectionsTotal prometheus.Counter
	proposalsTotal       *prometheus.CounterVec
	analysisDuration     prometheus.Histogram
	cacheOperations      *prometheus.CounterVec
	fillPercentage       *prometheus.GaugeVec
}

// NewMetrics registers the collectors on reg. Passing nil uses a fresh
// registry, which keeps tests independent of each other.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		swapsAppliedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rotation_swaps_applied_total",
			Help: "Swaps written to the rotation grid",
		}),
		staleProposalsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rotation_stale_proposals_total",
			Help: "Swaps rejected because the slot changed since the proposal",
		}),
		cycleRejectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rotation_cycle_rejections_total",
			Help: "Sub-recipe links or swaps rejected for cyclic composition",
		}),
		proposalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_proposals_total",
				Help: "Optimization proposals computed, by candidate source",
			},
			[]string{"source"},
		),
		analysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rotation_analysis_duration_seconds",
			Help:    "Time spent computing an analysis bundle",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_analysis_cache_total",
				Help: "Analysis cache lookups by result",
			},
			[]string{"result"},
		),
		fillPercentage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rotation_fill_percentage",
				Help: "Last computed fill percentage per template",
			},
			[]string{"template_id"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a served request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSwapApplied counts a successful swap
func (m *Metrics) RecordSwapApplied() { m.swapsAppliedTotal.Inc() }

// RecordStaleProposal counts a stale swap
func (m *Metrics) RecordStaleProposal() { m.staleProposalsTotal.Inc() }

// RecordCycleRejected counts a cycle rejection
func (m *Metrics) RecordCycleRejected() { m.cycleRejectionsTotal.Inc() }

// RecordProposal counts a proposal by source ("external" or "provider")
func (m *Metrics) RecordProposal(source string) {
	m.proposalsTotal.WithLabelValues(source).Inc()
}

// RecordAnalysis observes one analysis run
func (m *Metrics) RecordAnalysis(templateID string, fill int, duration time.Duration) {
	m.analysisDuration.Observe(duration.Seconds())
	m.fillPercentage.WithLabelValues(templateID).Set(float64(fill))
}

// RecordCache counts a cache lookup ("hit", "miss" or "error")
func (m *Metrics) RecordCache(result string) {
	m.cacheOperations.WithLabelValues(result).Inc()
}
