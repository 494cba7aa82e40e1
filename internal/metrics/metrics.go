// Package metrics provides Prometheus instrumentation for the tracker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PriceRefreshes counts refresh cycles by result (ok, empty, panic).
	PriceRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_price_refreshes_total",
		Help: "Price refresh cycles by result",
	}, []string{"result"})

	// FXRefreshes counts exchange rate refreshes by result.
	FXRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_fx_refreshes_total",
		Help: "Exchange rate refreshes by result",
	}, []string{"result"})

	// RefreshDuration tracks the duration of a price refresh cycle.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_refresh_duration_seconds",
		Help:    "Price refresh cycle duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// PortfolioValue is the latest total portfolio value in USD.
	PortfolioValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_portfolio_value_usd",
		Help: "Latest total portfolio value in USD",
	})

	// AlertsRaised counts alerts added to the active list.
	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_alerts_raised_total",
		Help: "Alerts raised by type and severity",
	}, []string{"type", "severity"})

	// ActiveAlerts is the size of the active alert list.
	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_active_alerts",
		Help: "Number of active alerts",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_http_request_duration_seconds",
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
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for the path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
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
