// Package metrics provides Prometheus instrumentation for the report engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReportBuildsTotal counts report builds, partitioned by construction
	// path and outcome.
	ReportBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradereport_builds_total",
		Help: "Total number of report builds",
	}, []string{"builder", "outcome"})

	// ReportBuildDuration tracks how long a full report build takes.
	ReportBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradereport_build_duration_seconds",
		Help:    "Report build duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"builder"})

	// TradesStreamed counts rows delivered by each trade table.
	TradesStreamed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradereport_trades_streamed_total",
		Help: "Trade rows streamed from the database",
	}, []string{"table"})

	// CacheHits counts report summaries served from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradereport_cache_hits_total",
		Help: "Report summaries served from cache",
	})

	// CacheMisses counts report windows that required a rebuild.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradereport_cache_misses_total",
		Help: "Report summary cache misses",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradereport_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradereport_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Raw path keeps cardinality low enough here: the surface is a
		// handful of fixed routes with query-string parameters.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
