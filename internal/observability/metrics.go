// Package observability holds the Prometheus instruments for API fetches and
// poll cycles, and an optional /metrics endpoint.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters and histograms recorded by the client.
type Metrics struct {
	// API requests.
	Requests        *prometheus.CounterVec   // labels: resource, outcome={success,network,transport,decode}
	RequestDuration *prometheus.HistogramVec // labels: resource

	// Poll cycles.
	PollCycles   *prometheus.CounterVec // labels: subscription, outcome={success,error}
	StaleResults *prometheus.CounterVec // labels: subscription
	ActivePolls  prometheus.Gauge

	registry *prometheus.Registry
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pvz",
			Name:      "api_requests_total",
			Help:      "Backend API requests by resource and outcome.",
		}, []string{"resource", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pvz",
			Name:      "api_request_duration_seconds",
			Help:      "Backend API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"resource"}),
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pvz",
			Name:      "poll_cycles_total",
			Help:      "Applied poll results by subscription and outcome.",
		}, []string{"subscription", "outcome"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pvz",
			Name:      "poll_stale_results_total",
			Help:      "Poll results discarded because their subscription was stopped or superseded.",
		}, []string{"subscription"}),
		ActivePolls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pvz",
			Name:      "poll_active_subscriptions",
			Help:      "Number of running poll subscriptions.",
		}),
	}
}

// NewMetrics creates all instruments and registers them on a dedicated registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.PollCycles,
		m.StaleResults,
		m.ActivePolls,
	)
	return m
}

// NewMetricsForTesting creates unregistered instruments so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(resource, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(resource, outcome).Inc()
	m.RequestDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// ObservePoll records one applied poll result.
func (m *Metrics) ObservePoll(subscription string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.PollCycles.WithLabelValues(subscription, outcome).Inc()
}

// ObserveStale records one discarded poll result.
func (m *Metrics) ObserveStale(subscription string) {
	if m == nil {
		return
	}
	m.StaleResults.WithLabelValues(subscription).Inc()
}

// SetActive sets the number of running subscriptions.
func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.ActivePolls.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
