// Package observability provides Prometheus metrics for monitoring the
// watcher pipeline and the telemetry endpoint that exposes them.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	metricspkg "github.com/racewatch/regbot/internal/observability/metrics"
)

// Metrics bundles the application metric groups behind one registry.
type Metrics struct {
	registry *prometheus.Registry

	Watcher  *metricspkg.WatcherMetrics
	Notifier *metricspkg.NotifierMetrics
}

// NewMetrics creates a registry with process collectors and all application
// metric groups registered.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	watcher, err := metricspkg.NewWatcherMetrics(registry)
	if err != nil {
		return nil, err
	}
	notifier, err := metricspkg.NewNotifierMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry: registry,
		Watcher:  watcher,
		Notifier: notifier,
	}, nil
}

// WatcherOrNil returns the watcher metric group; nil when telemetry is off.
// The recorder methods are nil-safe, so callers can pass the result through.
func (m *Metrics) WatcherOrNil() *metricspkg.WatcherMetrics {
	if m == nil {
		return nil
	}
	return m.Watcher
}

// NotifierOrNil returns the notifier metric group; nil when telemetry is off.
func (m *Metrics) NotifierOrNil() *metricspkg.NotifierMetrics {
	if m == nil {
		return nil
	}
	return m.Notifier
}

// RegisterHandlers attaches the metrics endpoint to the given mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
