// Package metrics provides Prometheus instrumentation for the loan engine.
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
	// QuotesTotal counts calculation quotes served, partitioned by kind
	// (interest, schedule, collateral, penalty, risk, reputation, limits).
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lendfi_quotes_total",
		Help: "Total number of calculation quotes served",
	}, []string{"kind"})

	// ValidationFailuresTotal counts requests rejected by threshold checks.
	ValidationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lendfi_validation_failures_total",
		Help: "Requests rejected by threshold validation",
	})

	// OracleRefreshesTotal counts successful price feed refreshes.
	OracleRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lendfi_oracle_refreshes_total",
		Help: "Successful oracle price refreshes",
	})

	// OracleRefreshErrorsTotal counts failed price feed refreshes.
	OracleRefreshErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lendfi_oracle_refresh_errors_total",
		Help: "Failed oracle price refreshes",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lendfi_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lendfi_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lendfi_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
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

		// Use the route pattern for path label to avoid high cardinality.
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
