package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for one service process.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	peerCallDuration    *prometheus.HistogramVec
	peerCalls           *prometheus.CounterVec
	eligibilityDegraded prometheus.Counter
	cacheLookups        *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	bulkRows            *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	peerCallDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peer_call_duration_seconds",
		Help:    "Duration of calls to sibling services",
		Buckets: prometheus.DefBuckets,
	}, []string{"peer"})

	peerCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peer_calls_total",
		Help: "Calls to sibling services by outcome",
	}, []string{"peer", "outcome"})

	eligibilityDegraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eligibility_degraded_total",
		Help: "Eligibility lookups answered without course-derived exams",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification deliveries by outcome",
	}, []string{"outcome"})

	bulkRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_rows_total",
		Help: "Bulk import rows by kind and outcome",
	}, []string{"kind", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, peerCallDuration, peerCalls, eligibilityDegraded,
		cacheLookups, notifications, bulkRows, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		peerCallDuration:    peerCallDuration,
		peerCalls:           peerCalls,
		eligibilityDegraded: eligibilityDegraded,
		cacheLookups:        cacheLookups,
		notifications:       notifications,
		bulkRows:            bulkRows,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObservePeerCall records one attempt against a sibling service.
func (m *MetricsService) ObservePeerCall(peer, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.peerCallDuration.WithLabelValues(peer).Observe(duration.Seconds())
	m.peerCalls.WithLabelValues(peer, outcome).Inc()
}

// RecordEligibilityDegraded counts an eligibility answer missing course-derived exams.
func (m *MetricsService) RecordEligibilityDegraded() {
	if m == nil {
		return
	}
	m.eligibilityDegraded.Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordNotification records a delivery outcome.
func (m *MetricsService) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// RecordBulkRow records the outcome of one imported row.
func (m *MetricsService) RecordBulkRow(kind, outcome string) {
	if m == nil {
		return
	}
	m.bulkRows.WithLabelValues(kind, outcome).Inc()
}
