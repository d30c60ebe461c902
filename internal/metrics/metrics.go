// Package metrics registers the Prometheus collectors for VaultIntake. HTTP
// metrics are recorded by Middleware; ingestion metrics are exported so the
// pipeline can update them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultintake_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaultintake_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

var (
	// RecordsTotal counts emitted result records.
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultintake_records_total",
			Help: "Result records emitted, by status and file type.",
		},
		[]string{"status", "file_type"},
	)

	// DuplicatesTotal counts records whose content had been seen before.
	DuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultintake_duplicates_total",
			Help: "Records flagged as duplicate content.",
		},
	)

	// ArchivesTotal counts archive uploads by outcome (expanded, unreadable).
	ArchivesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultintake_archives_total",
			Help: "Archive uploads, by outcome.",
		},
		[]string{"result"},
	)

	// BatchesPublished counts batches handed to the persistence fan-out.
	BatchesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultintake_batches_published_total",
			Help: "Batches handed to persistence, by result.",
		},
		[]string{"result"},
	)
)

// Middleware records request count and latency. The chi route pattern is used
// as the label so ids in paths do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
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

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
