// Package daemon wires the long-running watch service together: store,
// upstream client, catalog sync, poll loop, dispatcher and telemetry.
package daemon

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/racewatch/regbot/internal/catalog"
	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/datastore"
	"github.com/racewatch/regbot/internal/errors"
	"github.com/racewatch/regbot/internal/iracing"
	"github.com/racewatch/regbot/internal/logging"
	"github.com/racewatch/regbot/internal/notifier"
	"github.com/racewatch/regbot/internal/observability"
	"github.com/racewatch/regbot/internal/regwatch"
)

// Run starts the watch service and blocks until SIGINT/SIGTERM. A poll loop
// that stops on its own is an invariant violation and exits the process so a
// supervisor can restart it.
func Run(settings *conf.Settings) error {
	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)

	store := datastore.New(settings)
	if store == nil {
		return errors.Newf("no database backend enabled").
			Component("daemon").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("Failed to close store", "error", err)
		}
	}()

	client, err := iracing.NewClient(settings)
	if err != nil {
		return err
	}
	defer client.Close()

	var wg sync.WaitGroup
	quit := make(chan struct{})

	var metrics *observability.Metrics
	if settings.Telemetry.Enabled {
		metrics, err = observability.NewMetrics()
		if err != nil {
			return err
		}
		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quit)
	}

	transport, err := notifier.NewShoutrrrTransport(settings)
	if err != nil {
		return err
	}

	state := catalog.NewState()
	catalogSvc := catalog.NewService(client, store, state)
	defer func() { _ = catalogSvc.Close() }()
	dispatcher := notifier.NewDispatcher(settings, transport, metrics.NotifierOrNil())
	defer func() { _ = dispatcher.Close() }()
	watcher := regwatch.NewWatcher(settings, client, catalogSvc, state, store,
		dispatcher, metrics.WatcherOrNil())
	defer func() { _ = watcher.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("regbot starting",
		"poll_interval", settings.Watcher.PollInterval,
		"destinations", len(settings.Notify.Destinations),
		"telemetry", settings.Telemetry.Enabled)

	err = watcher.Run(ctx)
	close(quit)
	wg.Wait()

	switch {
	case err == nil:
		// Run's contract forbids a normal return; nothing can restart the
		// loop from inside the process.
		logging.Fatal("Poll loop terminated without error, exiting for supervisor restart")
		return nil
	case errors.Is(err, context.Canceled):
		logging.Info("regbot shutting down")
		return nil
	default:
		return err
	}
}
