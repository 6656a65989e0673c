package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeBuilt      = "built"
	OutcomeCached     = "cached"
	OutcomeInvalid    = "invalid"
	OutcomeTimingFail = "timing_error"
	OutcomeError      = "error"
)

// Metrics owns a private registry so tests and multiple services never collide
// on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	graphBuilds        *prometheus.CounterVec
	graphBuildDuration prometheus.Histogram
	graphTasks         prometheus.Histogram
	graphDependencies  prometheus.Histogram
	httpRequests       *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		graphBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_builds_total",
				Help:      "Task graph build requests by outcome.",
			},
			[]string{"outcome"},
		),
		graphBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_build_duration_seconds",
				Help:      "Duration of task graph builds in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		graphTasks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_tasks",
				Help:      "Number of tasks per built graph.",
				Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
			},
		),
		graphDependencies: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_dependencies",
				Help:      "Number of dependency edges per built graph.",
				Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.graphBuilds,
		m.graphBuildDuration,
		m.graphTasks,
		m.graphDependencies,
		m.httpRequests,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBuild records one build request. Size is only observed for fresh builds.
func (m *Metrics) ObserveBuild(outcome string, elapsed time.Duration, tasks, dependencies int) {
	if m == nil {
		return
	}
	m.graphBuilds.WithLabelValues(outcome).Inc()
	if outcome != OutcomeBuilt {
		return
	}
	m.graphBuildDuration.Observe(elapsed.Seconds())
	m.graphTasks.Observe(float64(tasks))
	m.graphDependencies.Observe(float64(dependencies))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument counts requests served by next, labelled with the route mux would
// dispatch them to. next may reject a request before it reaches mux.
func (m *Metrics) Instrument(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, route := mux.Handler(r)
		cw := &codeWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(cw, r)
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(cw.code)).Inc()
	})
}

type codeWriter struct {
	http.ResponseWriter
	code int
}

func (w *codeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *codeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
