package regwatch

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/racewatch/regbot/internal/catalog"
	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/datastore"
	"github.com/racewatch/regbot/internal/errors"
	"github.com/racewatch/regbot/internal/iracing"
	"github.com/racewatch/regbot/internal/logging"
	"github.com/racewatch/regbot/internal/observability/metrics"
)

var (
	logger      *slog.Logger
	closeLogger func() error
)

func init() {
	var err error
	logger, closeLogger, err = logging.NewFileLogger("logs/regwatch.log", "regwatch", slog.LevelInfo)
	if err != nil || logger == nil {
		// Fallback: discard logs rather than fail to start
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// raceGuideClient is the slice of the API client the poll loop needs.
type raceGuideClient interface {
	RaceGuide(ctx context.Context) (*iracing.RaceGuide, error)
}

// Dispatcher receives the matched announcements of one poll iteration.
type Dispatcher interface {
	Dispatch(ctx context.Context, watches map[string][]datastore.Watch, announcements map[int64]*Announcement)
}

// Watcher runs the sequential poll pipeline: catalog resync check, race
// guide fetch, diff, match, dispatch, sleep. Announcements of iteration N
// are always dispatched before iteration N+1 fetches.
type Watcher struct {
	client     raceGuideClient
	catalog    *catalog.Service
	state      *catalog.State
	store      datastore.Interface
	dispatcher Dispatcher
	metrics    *metrics.WatcherMetrics

	engine       *diffEngine
	pollInterval time.Duration
	backoffFloor time.Duration
	backoffCap   time.Duration

	now func() time.Time
}

func NewWatcher(settings *conf.Settings, client raceGuideClient, catalogSvc *catalog.Service,
	state *catalog.State, store datastore.Interface, dispatcher Dispatcher,
	m *metrics.WatcherMetrics,
) *Watcher {
	return &Watcher{
		client:       client,
		catalog:      catalogSvc,
		state:        state,
		store:        store,
		dispatcher:   dispatcher,
		metrics:      m,
		engine:       newDiffEngine(),
		pollInterval: time.Duration(settings.Watcher.PollInterval) * time.Second,
		backoffFloor: time.Duration(settings.Watcher.BackoffFloor) * time.Second,
		backoffCap:   time.Duration(settings.Watcher.BackoffCap) * time.Second,
		now:          time.Now,
	}
}

// Close releases the package log file. Call after Run has returned.
func (w *Watcher) Close() error {
	return closeLogger()
}

// Run polls until the context is cancelled. It never returns nil: the only
// exit is the context's error. A normal return would mean nothing is left to
// poll, which the caller must treat as fatal.
func (w *Watcher) Run(ctx context.Context) error {
	logger.Info("Race guide watcher starting",
		"poll_interval", w.pollInterval,
		"backoff_cap", w.backoffCap)

	backoff := w.backoffFloor
	for {
		start := w.now()
		err := w.iterate(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			w.metrics.RecordPoll("error", w.now().Sub(start).Seconds())
			w.metrics.RecordFetchError(string(errors.GetCategory(err)))
			w.metrics.SetBackoff(backoff.Seconds())
			logger.Warn("Poll iteration failed, backing off",
				"error", err,
				"backoff", backoff)
			if !w.sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, w.backoffCap)
			continue
		}

		backoff = w.backoffFloor
		w.metrics.RecordPoll("success", w.now().Sub(start).Seconds())
		w.metrics.SetBackoff(0)
		w.metrics.SetTrackedSeries(w.engine.tracked())

		// Sleep until start+interval rather than now+interval so fetch
		// latency does not push the cadence.
		if wait := start.Add(w.pollInterval).Sub(w.now()); wait > 0 {
			if !w.sleep(ctx, wait) {
				return ctx.Err()
			}
		}
	}
}

// iterate runs one poll: resync the catalog across UTC day boundaries, fetch
// and dedupe the race guide, diff every entry, then match and dispatch.
func (w *Watcher) iterate(ctx context.Context) error {
	if w.catalog.NeedsSync() {
		active, err := w.catalog.Sync(ctx)
		if err != nil {
			w.metrics.RecordCatalogSync("error", 0)
			return err
		}
		w.metrics.RecordCatalogSync("success", len(active))
		w.engine.prune(w.state)
	}

	guide, err := w.client.RaceGuide(ctx)
	if err != nil {
		return err
	}

	// Load the watch table before the diff runs: a store failure then
	// aborts the iteration without consuming any transition baselines.
	watches, err := w.store.WatchesByDestination()
	if err != nil {
		return err
	}

	announcements := w.diff(guide.Sessions)
	if len(announcements) == 0 {
		return nil
	}
	w.dispatcher.Dispatch(ctx, watches, announcements)
	return nil
}

// diff feeds the deduplicated race guide into the engine and collects at
// most one announcement per series. The upstream lists a series once per
// upcoming session inside its lookahead window; only the first occurrence
// counts. Series unknown to the catalog are ignored.
func (w *Watcher) diff(entries []iracing.RaceGuideEntry) map[int64]*Announcement {
	announcements := make(map[int64]*Announcement)
	seen := make(map[int64]bool, len(entries))
	for i := range entries {
		entry := entries[i]
		if seen[entry.SeriesID] {
			continue
		}
		seen[entry.SeriesID] = true

		info, ok := w.state.Get(entry.SeriesID)
		if !ok {
			continue
		}
		if a := w.engine.observe(entry, info); a != nil {
			announcements[a.SeriesID] = a
			w.metrics.RecordAnnouncement(a.Kind.String())
			logger.Debug("Registration transition detected",
				"series_id", a.SeriesID,
				"series", a.SeriesName,
				"kind", a.Kind.String(),
				"prev_count", a.Prev.EntryCount,
				"curr_count", a.Curr.EntryCount)
		}
	}
	return announcements
}

// sleep waits for d or until the context is cancelled; false means cancelled.
func (w *Watcher) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
