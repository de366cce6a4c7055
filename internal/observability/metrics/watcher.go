// Package metrics provides Prometheus metrics for the watcher pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WatcherMetrics contains Prometheus metrics for the race guide poll loop.
type WatcherMetrics struct {
	pollsTotal         *prometheus.CounterVec
	fetchErrorsTotal   *prometheus.CounterVec
	announcementsTotal *prometheus.CounterVec
	catalogSyncsTotal  *prometheus.CounterVec
	pollDuration       prometheus.Histogram
	backoffSeconds     prometheus.Gauge
	activeSeriesGauge  prometheus.Gauge
	trackedSeriesGauge prometheus.Gauge
}

// NewWatcherMetrics creates and registers new watcher metrics.
func NewWatcherMetrics(registry *prometheus.Registry) (*WatcherMetrics, error) {
	m := &WatcherMetrics{
		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regbot_polls_total",
				Help: "Total number of race guide poll iterations",
			},
			[]string{"status"}, // status: success, error
		),
		fetchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regbot_fetch_errors_total",
				Help: "Total number of upstream fetch errors",
			},
			[]string{"category"},
		),
		announcementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regbot_announcements_total",
				Help: "Total number of registration announcements by kind",
			},
			[]string{"kind"},
		),
		catalogSyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regbot_catalog_syncs_total",
				Help: "Total number of catalog synchronizations",
			},
			[]string{"status"},
		),
		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "regbot_poll_duration_seconds",
				Help:    "Time taken by one poll iteration",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
		backoffSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "regbot_backoff_seconds",
				Help: "Current poll backoff delay in seconds, 0 when healthy",
			},
		),
		activeSeriesGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "regbot_active_series",
				Help: "Number of active series in the catalog",
			},
		),
		trackedSeriesGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "regbot_tracked_series",
				Help: "Number of series with a stored diff baseline",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.pollsTotal, m.fetchErrorsTotal, m.announcementsTotal,
		m.catalogSyncsTotal, m.pollDuration, m.backoffSeconds,
		m.activeSeriesGauge, m.trackedSeriesGauge,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordPoll records the outcome and duration of one poll iteration.
func (m *WatcherMetrics) RecordPoll(status string, seconds float64) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(status).Inc()
	m.pollDuration.Observe(seconds)
}

// RecordFetchError records an upstream fetch error by error category.
func (m *WatcherMetrics) RecordFetchError(category string) {
	if m == nil {
		return
	}
	m.fetchErrorsTotal.WithLabelValues(category).Inc()
}

// RecordAnnouncement records one emitted announcement by kind.
func (m *WatcherMetrics) RecordAnnouncement(kind string) {
	if m == nil {
		return
	}
	m.announcementsTotal.WithLabelValues(kind).Inc()
}

// RecordCatalogSync records the outcome of a catalog sync and, on success,
// the resulting active series count.
func (m *WatcherMetrics) RecordCatalogSync(status string, activeSeries int) {
	if m == nil {
		return
	}
	m.catalogSyncsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.activeSeriesGauge.Set(float64(activeSeries))
	}
}

// SetBackoff publishes the current backoff delay, 0 when the loop is healthy.
func (m *WatcherMetrics) SetBackoff(seconds float64) {
	if m == nil {
		return
	}
	m.backoffSeconds.Set(seconds)
}

// SetTrackedSeries publishes the diff engine's tracked series count.
func (m *WatcherMetrics) SetTrackedSeries(n int) {
	if m == nil {
		return
	}
	m.trackedSeriesGauge.Set(float64(n))
}
