package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

// Metrics holds the daemon's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs       *prometheus.CounterVec
	steps      prometheus.Counter
	iterations prometheus.Histogram
	datasets   prometheus.Counter
	requests   *prometheus.HistogramVec
	gatherer   prometheus.Gatherer
}

// NewMetrics registers collectors on reg. activeSessions, when non-nil,
// backs a gauge of live sessions.
func NewMetrics(reg *prometheus.Registry, activeSessions func() int) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kmeans",
			Name:      "runs_total",
			Help:      "Clustering runs that reached a terminal state.",
		}, []string{"mode", "init_method", "outcome"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kmeans",
			Name:      "steps_total",
			Help:      "Single-step requests served.",
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kmeans",
			Name:      "run_iterations",
			Help:      "Iterations taken by terminated runs.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 300},
		}),
		datasets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kmeans",
			Name:      "datasets_generated_total",
			Help:      "Datasets produced by generate_data.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kmeans",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
		gatherer: reg,
	}
	reg.MustRegister(m.runs, m.steps, m.iterations, m.datasets, m.requests)
	if activeSessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "kmeans",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(activeSessions()) }))
	}
	return m
}

// ObserveRun records a run that reached a terminal state.
func (m *Metrics) ObserveRun(mode string, method kmeans.InitMethod, res kmeans.Result) {
	if m == nil {
		return
	}
	outcome := "converged"
	if res.Exhausted {
		outcome = "exhausted"
	}
	m.runs.WithLabelValues(mode, string(method), outcome).Inc()
	m.iterations.Observe(float64(res.Iteration))
}

func (m *Metrics) ObserveStep() {
	if m == nil {
		return
	}
	m.steps.Inc()
}

func (m *Metrics) ObserveDataset() {
	if m == nil {
		return
	}
	m.datasets.Inc()
}

// Middleware times requests by their chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(route, strconv.Itoa(ww.Status())).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
