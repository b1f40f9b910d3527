// Package metrics holds the prometheus collectors of the storage engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "drawbridge"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Engine operation metrics
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Rows       *prometheus.CounterVec

	// Edit session metrics
	SessionsSweptTotal prometheus.Counter

	// HTTP request metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of storage engine operations",
			},
			[]string{"operation", "status"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Storage engine operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Total number of rows read or written",
			},
			[]string{"operation"},
		),
		SessionsSweptTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_swept_total",
				Help:      "Total number of expired edit sessions closed by sweeps",
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveOperation records one engine operation and its outcome.
func (m *Metrics) ObserveOperation(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(op, status).Inc()
	m.Duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// AddRows counts rows touched by an operation.
func (m *Metrics) AddRows(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Rows.WithLabelValues(op).Add(float64(n))
}

// SessionsSwept counts sessions closed by an expiry sweep.
func (m *Metrics) SessionsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSweptTotal.Add(float64(n))
}

// Middleware records request counts and latency. Routes are labelled by
// the raw path, so it should only wrap a fixed set of endpoints.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		m.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
