package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotifierMetrics contains Prometheus metrics for notification dispatch.
type NotifierMetrics struct {
	messagesTotal   *prometheus.CounterVec
	linesTotal      prometheus.Counter
	sendErrorsTotal *prometheus.CounterVec
	messageBytes    prometheus.Histogram
}

// NewNotifierMetrics creates and registers new notifier metrics.
func NewNotifierMetrics(registry *prometheus.Registry) (*NotifierMetrics, error) {
	m := &NotifierMetrics{
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regbot_messages_total",
				Help: "Total number of outbound notification messages",
			},
			[]string{"status"}, // status: sent, error
		),
		linesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "regbot_notification_lines_total",
				Help: "Total number of rendered notification lines",
			},
		),
		sendErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regbot_send_errors_total",
				Help: "Total number of transport send failures by destination",
			},
			[]string{"destination"},
		),
		messageBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "regbot_message_bytes",
				Help:    "Size of outbound messages in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 2, 8),
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.messagesTotal, m.linesTotal, m.sendErrorsTotal, m.messageBytes,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordLine records one rendered notification line.
func (m *NotifierMetrics) RecordLine() {
	if m == nil {
		return
	}
	m.linesTotal.Inc()
}

// RecordMessage records one outbound message and its size.
func (m *NotifierMetrics) RecordMessage(status string, bytes int) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(status).Inc()
	m.messageBytes.Observe(float64(bytes))
}

// RecordSendError records a transport send failure for a destination.
func (m *NotifierMetrics) RecordSendError(destination string) {
	if m == nil {
		return
	}
	m.sendErrorsTotal.WithLabelValues(destination).Inc()
}
