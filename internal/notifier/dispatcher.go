package notifier

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/datastore"
	"github.com/racewatch/regbot/internal/logging"
	"github.com/racewatch/regbot/internal/observability/metrics"
	"github.com/racewatch/regbot/internal/regwatch"
)

var (
	logger      *slog.Logger
	closeLogger func() error
)

func init() {
	var err error
	logger, closeLogger, err = logging.NewFileLogger("logs/notifier.log", "notifier", slog.LevelInfo)
	if err != nil || logger == nil {
		// Fallback: discard logs rather than fail to start
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// Transport delivers one message to one destination. Implementations must
// respect the payload limit the dispatcher batches under.
type Transport interface {
	Send(ctx context.Context, destinationID, text string) error
}

// Dispatcher batches matched announcements into per-destination messages.
// Best effort: send failures are logged and never retried.
type Dispatcher struct {
	transport    Transport
	payloadLimit int
	metrics      *metrics.NotifierMetrics

	now func() time.Time
}

func NewDispatcher(settings *conf.Settings, transport Transport, m *metrics.NotifierMetrics) *Dispatcher {
	return &Dispatcher{
		transport:    transport,
		payloadLimit: settings.Notify.PayloadLimit,
		metrics:      m,
		now:          time.Now,
	}
}

// Close releases the package log file.
func (d *Dispatcher) Close() error {
	return closeLogger()
}

// Dispatch walks each destination's watches in stored order, renders every
// accepted announcement, and flushes batched messages whenever appending a
// line would push the buffer past the payload limit. Destinations with no
// matching announcements receive nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, watches map[string][]datastore.Watch,
	announcements map[int64]*regwatch.Announcement,
) {
	now := d.now()
	for destinationID, destWatches := range watches {
		var buf strings.Builder
		for i := range destWatches {
			w := &destWatches[i]
			a, ok := announcements[w.SeriesID]
			if !ok {
				continue
			}
			if !regwatch.Matches(w, a) {
				continue
			}

			line := render(a, now)
			d.metrics.RecordLine()
			if buf.Len() > 0 && buf.Len()+1+len(line) > d.payloadLimit {
				d.flush(ctx, destinationID, &buf)
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
		}
		if buf.Len() > 0 {
			d.flush(ctx, destinationID, &buf)
		}
	}
}

// flush sends the buffered lines as one message and resets the buffer.
func (d *Dispatcher) flush(ctx context.Context, destinationID string, buf *strings.Builder) {
	text := buf.String()
	buf.Reset()

	if err := d.transport.Send(ctx, destinationID, text); err != nil {
		d.metrics.RecordMessage("error", len(text))
		d.metrics.RecordSendError(destinationID)
		logger.Error("Failed to send notification",
			"destination", destinationID,
			"bytes", len(text),
			"error", err)
		return
	}
	d.metrics.RecordMessage("sent", len(text))
	logger.Debug("Notification sent",
		"destination", destinationID,
		"bytes", len(text))
}
