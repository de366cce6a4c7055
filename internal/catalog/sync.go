package catalog

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/racewatch/regbot/internal/datastore"
	"github.com/racewatch/regbot/internal/errors"
	"github.com/racewatch/regbot/internal/iracing"
	"github.com/racewatch/regbot/internal/logging"
)

var (
	logger      *slog.Logger
	closeLogger func() error
)

func init() {
	var err error
	logger, closeLogger, err = logging.NewFileLogger("logs/catalog.log", "catalog", slog.LevelInfo)
	if err != nil || logger == nil {
		// Fallback: discard logs rather than fail to start
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// upstream is the slice of the API client the sync needs.
type upstream interface {
	SeriesList(ctx context.Context) ([]iracing.Series, error)
	Seasons(ctx context.Context) ([]iracing.Season, error)
}

// Service reconciles the upstream catalog into the store and the shared
// in-memory state. Sync runs inline in the poll loop, once at startup and
// again after each UTC day boundary.
type Service struct {
	client upstream
	store  datastore.Interface
	state  *State

	mu       sync.Mutex
	lastSync time.Time
	now      func() time.Time
}

func NewService(client upstream, store datastore.Interface, state *State) *Service {
	return &Service{
		client: client,
		store:  store,
		state:  state,
		now:    time.Now,
	}
}

// NeedsSync reports whether a sync is due: never synced yet, or the UTC date
// has advanced past the date of the last successful sync.
func (s *Service) NeedsSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSync.IsZero() {
		return true
	}
	last := s.lastSync.UTC()
	now := s.now().UTC()
	return last.Year() != now.Year() || last.YearDay() != now.YearDay()
}

// Sync fetches the series and season lists, joins them by series id, writes
// the result to the store and publishes it to the in-memory state. Seasons
// whose current race week has no matching schedule row are skipped with a
// warning. Returns the active catalog keyed by series id.
func (s *Service) Sync(ctx context.Context) (map[int64]SeriesInfo, error) {
	start := time.Now()

	seriesList, err := s.client.SeriesList(ctx)
	if err != nil {
		return nil, errors.New(err).
			Component("catalog").
			Category(errors.CategoryNetwork).
			Context("operation", "sync_series_list").
			Build()
	}
	seasons, err := s.client.Seasons(ctx)
	if err != nil {
		return nil, errors.New(err).
			Component("catalog").
			Category(errors.CategoryNetwork).
			Context("operation", "sync_seasons").
			Build()
	}

	byID := make(map[int64]iracing.Series, len(seriesList))
	for i := range seriesList {
		byID[seriesList[i].SeriesID] = seriesList[i]
	}

	active := make(map[int64]SeriesInfo)
	rows := make([]datastore.Series, 0, len(seasons))
	for i := range seasons {
		season := &seasons[i]
		if !season.Active {
			continue
		}
		series, ok := byID[season.SeriesID]
		if !ok {
			logger.Warn("Season references unknown series, skipping",
				"season_id", season.SeasonID,
				"series_id", season.SeriesID)
			continue
		}
		schedule := scheduleForWeek(season)
		if schedule == nil {
			logger.Warn("Season has no schedule row for its current race week, skipping",
				"season_id", season.SeasonID,
				"series_id", season.SeriesID,
				"race_week", season.RaceWeek)
			continue
		}

		info := SeriesInfo{
			SeriesID:    season.SeriesID,
			Name:        series.SeriesName,
			RegOfficial: series.MinStarters,
			RegSplit:    series.MaxStarters,
			RaceWeek:    season.RaceWeek,
			TrackName:   schedule.Track.TrackName,
		}
		if schedule.Track.ConfigName != nil {
			info.TrackConfig = *schedule.Track.ConfigName
		}
		if schedule.Track.Category != nil {
			info.TrackCategory = *schedule.Track.Category
		}
		active[info.SeriesID] = info
		rows = append(rows, datastore.Series{
			SeriesID:      info.SeriesID,
			Name:          info.Name,
			RegOfficial:   info.RegOfficial,
			RegSplit:      info.RegSplit,
			RaceWeek:      info.RaceWeek,
			TrackName:     info.TrackName,
			TrackConfig:   info.TrackConfig,
			TrackCategory: info.TrackCategory,
			UpdatedAt:     s.now(),
		})
	}

	if err := s.store.ReplaceActiveSeries(rows); err != nil {
		return nil, errors.New(err).
			Component("catalog").
			Category(errors.CategoryDatabase).
			Context("operation", "sync_replace_series").
			Build()
	}

	s.state.Publish(active)

	s.mu.Lock()
	s.lastSync = s.now()
	s.mu.Unlock()

	logger.Info("Catalog sync completed",
		"active_series", len(active),
		"seasons_seen", len(seasons),
		"duration", time.Since(start))
	return active, nil
}

// Close releases the package log file.
func (s *Service) Close() error {
	return closeLogger()
}

// scheduleForWeek finds the schedule row for the season's current race week.
func scheduleForWeek(season *iracing.Season) *iracing.Schedule {
	for i := range season.Schedules {
		if season.Schedules[i].RaceWeekNum == season.RaceWeek {
			return &season.Schedules[i]
		}
	}
	return nil
}
