package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the recruitment workflow collectors.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheHitRatio   prometheus.Gauge
	submissions     prometheus.Counter
	decisions       *prometheus.CounterVec
	statusUpdates   *prometheus.CounterVec
	exportJobs      *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Applications accepted by the intake endpoint",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_decisions_total",
			Help: "Passed/determination transitions by outcome",
		}, []string{"axis", "decision", "outcome"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_status_updates_total",
			Help: "Per-submission results of bulk status updates",
		}, []string{"outcome"}),
		exportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "export_jobs_total",
			Help: "Submission export jobs by format and final status",
		}, []string{"format", "status"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applicant_uploads_total",
			Help: "Stored applicant documents by kind",
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"path"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency.(prometheus.Collector), m.cacheHits, m.cacheMisses, m.cacheHitRatio,
		m.submissions, m.decisions, m.statusUpdates, m.exportJobs, m.uploads, m.rateLimited,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// SubmissionCreated counts a new application.
func (m *MetricsService) SubmissionCreated() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}

// DecisionRecorded counts a decision transition; outcome is "applied" or "quota_exceeded".
func (m *MetricsService) DecisionRecorded(axis, decision, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(axis, decision, outcome).Inc()
}

// StatusUpdatesRecorded counts the per-id results of one bulk status update.
func (m *MetricsService) StatusUpdatesRecorded(updated, failed int) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues("updated").Add(float64(updated))
	m.statusUpdates.WithLabelValues("failed").Add(float64(failed))
}

// ExportFinished counts a terminal export job state.
func (m *MetricsService) ExportFinished(format, status string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(format, status).Inc()
}

// UploadStored counts an accepted applicant document.
func (m *MetricsService) UploadStored(kind string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(kind).Inc()
}

// RateLimited counts a rejected request.
func (m *MetricsService) RateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(path).Inc()
}
