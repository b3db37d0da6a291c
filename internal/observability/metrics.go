package observability

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agentladder"

// Metrics exposes Prometheus collectors for generation calls, fallbacks,
// planning sessions and saved reports. All methods are no-ops on nil.
type Metrics struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	iterations  prometheus.Counter
	plans       *prometheus.CounterVec
	reports     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry so several
// instances can coexist in one process (tests, multiple commands).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_calls_total",
				Help:      "Text generation calls by component and outcome.",
			},
			[]string{"component", "outcome"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Default values substituted for failed or unparseable calls.",
			},
			[]string{"component"},
		),
		iterations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "iterations_total",
				Help:      "Reasoning/action cycles performed by the planner.",
			},
		),
		plans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "plans_total",
				Help:      "Finished planning sessions by final status.",
			},
			[]string{"status"},
		),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_saved_total",
				Help:      "Report files written by kind.",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.generations, m.fallbacks, m.iterations, m.plans, m.reports)
	return m
}

func (m *Metrics) IncGeneration(component string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.generations.WithLabelValues(component, outcome).Inc()
}

func (m *Metrics) IncFallback(component string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(component).Inc()
}

func (m *Metrics) IncIteration() {
	if m == nil {
		return
	}
	m.iterations.Inc()
}

func (m *Metrics) IncPlan(status string) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(status).Inc()
}

func (m *Metrics) IncReport(kind string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(kind).Inc()
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics listening on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
