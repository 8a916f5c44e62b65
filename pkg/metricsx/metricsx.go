// Package metricsx owns the service's Prometheus registry.
package metricsx

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matrixstore"

// Metrics holds every collector the service exports. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	allocations   *prometheus.CounterVec
	rowsSaved     prometheus.Counter
	storageErrors *prometheus.CounterVec

	poolOpen      prometheus.Gauge
	poolInUse     prometheus.Gauge
	poolIdle      prometheus.Gauge
	poolWaitCount prometheus.Gauge
}

// New builds a Metrics with its own registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_saves_total",
			Help:      "Matrix saves by allocation strategy and whether the client supplied the id.",
		}, []string{"strategy", "client_id"}),
		rowsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_rows_saved_total",
			Help:      "Matrix rows written.",
		}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Backing store failures by operation.",
		}, []string{"op"}),
		poolOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db_pool", Name: "open_connections",
			Help: "Established connections, in use and idle.",
		}),
		poolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db_pool", Name: "in_use_connections",
			Help: "Connections currently checked out.",
		}),
		poolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db_pool", Name: "idle_connections",
			Help: "Idle connections.",
		}),
		poolWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db_pool", Name: "wait_count",
			Help: "Total number of connections waited for.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.allocations, m.rowsSaved, m.storageErrors,
		m.poolOpen, m.poolInUse, m.poolIdle, m.poolWaitCount,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPMiddleware records request count and latency. It must wrap the
// ServeMux so r.Pattern is populated once routing has happened.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveSave counts one matrix save of n rows.
func (m *Metrics) ObserveSave(strategy string, clientSuppliedID bool, n int) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(strategy, strconv.FormatBool(clientSuppliedID)).Inc()
	m.rowsSaved.Add(float64(n))
}

// ObserveStorageError counts a failed store operation.
func (m *Metrics) ObserveStorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

// ObservePool publishes a connection pool snapshot.
func (m *Metrics) ObservePool(s sql.DBStats) {
	if m == nil {
		return
	}
	m.poolOpen.Set(float64(s.OpenConnections))
	m.poolInUse.Set(float64(s.InUse))
	m.poolIdle.Set(float64(s.Idle))
	m.poolWaitCount.Set(float64(s.WaitCount))
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
