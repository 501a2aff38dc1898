// Package metrics provides Prometheus instrumentation for storeadmin.
//
// It pre-defines the dashboard API metrics, the outgoing catalog API call
// metrics and the workflow counters (reconciliation, image uploads, session
// transitions, schema cache).
//
// Wire it up once when building the router:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storeadmin"

// ─────────────────────────────────────────────
// Dashboard API metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long each dashboard API request takes.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of dashboard API requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	// RequestTotal counts all dashboard API requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of dashboard API requests.",
		},
		[]string{"method", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of dashboard API requests currently being served.",
	})
)

// ─────────────────────────────────────────────
// Catalog API (outgoing) metrics
// ─────────────────────────────────────────────

var (
	// RemoteCallDuration tracks outgoing calls to the catalog API.
	// status is the HTTP status code or "error" for transport failures.
	RemoteCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "call_duration_seconds",
			Help:      "Duration of catalog API calls in seconds.",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"method", "resource", "status"},
	)
)

// ─────────────────────────────────────────────
// Workflow metrics
// ─────────────────────────────────────────────

var (
	// SpecWrites counts individual specification value writes.
	SpecWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "writes_total",
			Help:      "Specification value writes by kind and result.",
		},
		[]string{"kind", "result"}, // kind: "create" | "update"; result: "ok" | "failed"
	)

	// ReconcileOutcomes counts finished reconciliation batches.
	ReconcileOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "outcomes_total",
			Help:      "Reconciliation batches by outcome.",
		},
		[]string{"outcome"}, // "success" | "partial_failure" | "error"
	)

	// ImageUploads counts upload + link sequences per slot.
	ImageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "uploads_total",
			Help:      "Image upload sequences by slot and result.",
		},
		[]string{"slot", "result"}, // slot: "primary" | "gallery"; result: "ok" | "upload_failed" | "link_failed"
	)

	// SessionTransitions counts editor state machine transitions.
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Editor session state transitions.",
		},
		[]string{"from", "to"},
	)

	// CacheHits / CacheMisses track schema cache effectiveness.
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits.",
		},
		[]string{"driver"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache misses.",
		},
		[]string{"driver"},
	)
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry exposed on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		RemoteCallDuration,
		SpecWrites,
		ReconcileOutcomes,
		ImageUploads,
		SessionTransitions,
		CacheHits,
		CacheMisses,
	)
}

// ─────────────────────────────────────────────
// HTTP middleware
// ─────────────────────────────────────────────

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer
// (needed for websocket hijacking).
func (r *responseRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

// Middleware records duration, totals and in-flight count for every request.
// Paths are not used as labels: session URLs embed product ids.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			status := strconv.Itoa(rr.status)
			RequestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, status).Inc()
		})
	}
}

// Handler exposes the registry in Prometheus text and OpenMetrics formats.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

// ─────────────────────────────────────────────
// Helpers for app code
// ─────────────────────────────────────────────

// ObserveRemoteCall records one outgoing catalog API call.
func ObserveRemoteCall(method, resource, status string, start time.Time) {
	RemoteCallDuration.WithLabelValues(method, resource, status).Observe(time.Since(start).Seconds())
}

// RecordSpecWrite counts one specification write.
func RecordSpecWrite(kind string, ok bool) {
	SpecWrites.WithLabelValues(kind, result(ok)).Inc()
}

// RecordReconcile counts one reconciliation batch.
func RecordReconcile(outcome string) {
	ReconcileOutcomes.WithLabelValues(outcome).Inc()
}

// RecordImageUpload counts one upload sequence.
func RecordImageUpload(slot, res string) {
	ImageUploads.WithLabelValues(slot, res).Inc()
}

// RecordTransition counts one editor state change.
func RecordTransition(from, to string) {
	SessionTransitions.WithLabelValues(from, to).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
