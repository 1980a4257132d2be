package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation outcomes recorded by ObserveCalculation.
const (
	OutcomeOK             = "ok"
	OutcomeInvalid        = "invalid"
	OutcomePersistFailed  = "persist_failed"
	OutcomeRenderFailed   = "render_failed"
	OutcomeBatchRowFailed = "row_invalid"
)

// Metrics collects Prometheus metrics for the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	calculations    *prometheus.CounterVec
	batchRows       *prometheus.CounterVec
}

// NewMetrics initialises a private registry with the service metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calc_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calc_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calc_calculations_total",
		Help: "Calculations by record kind and outcome.",
	}, []string{"kind", "outcome"})
	batchRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calc_batch_rows_total",
		Help: "Bulk receipt rows by status.",
	}, []string{"status"})
	registry.MustRegister(requests, duration, calculations, batchRows)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		calculations:    calculations,
		batchRows:       batchRows,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and duration of every request by chi route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		route := RoutePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.Status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCalculation counts one calculation of kind with outcome.
func (m *Metrics) ObserveCalculation(kind, outcome string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(kind, outcome).Inc()
}

// ObserveBatchRows adds n rows with status.
func (m *Metrics) ObserveBatchRows(status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.batchRows.WithLabelValues(status).Add(float64(n))
}

// Registerer exposes the registry for extra metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

// RoutePattern is the matched chi pattern, or "unknown".
func RoutePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
