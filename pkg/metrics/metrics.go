package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the exchange collectors on a private registry so tests can
// create as many instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	OrdersPlaced   *prometheus.CounterVec // type, side
	OrdersRejected *prometheus.CounterVec // reason
	OrdersCanceled prometheus.Counter
	Executions     *prometheus.CounterVec // reason
	OpenOrders     prometheus.Gauge
	Notifications  *prometheus.CounterVec // level
	TicksEvaluated prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lintex_orders_placed_total",
			Help: "Orders accepted by the engine",
		}, []string{"type", "side"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lintex_orders_rejected_total",
			Help: "Placements rejected before any state change",
		}, []string{"reason"}),
		OrdersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lintex_orders_canceled_total",
			Help: "Open orders canceled",
		}),
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lintex_executions_total",
			Help: "Orders filled, by trigger",
		}, []string{"reason"}),
		OpenOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lintex_open_orders",
			Help: "Orders currently open",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lintex_notifications_total",
			Help: "Notifications pushed to the bus",
		}, []string{"level"}),
		TicksEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lintex_tick_sets_evaluated_total",
			Help: "Tick sets run through the engine",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lintex_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"handler", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lintex_http_request_duration_seconds",
			Help:    "Histogram of response latency (seconds) for HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler", "method"}),
	}

	m.Registry.MustRegister(
		m.OrdersPlaced,
		m.OrdersRejected,
		m.OrdersCanceled,
		m.Executions,
		m.OpenOrders,
		m.Notifications,
		m.TicksEvaluated,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Instrument wraps a handler with request count and latency collection
func (m *Metrics) Instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		m.httpRequests.WithLabelValues(name, r.Method, strconv.Itoa(ww.status)).Inc()
		m.httpDuration.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
