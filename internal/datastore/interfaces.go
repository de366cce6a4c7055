// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/racewatch/regbot/internal/conf"
)

// Interface abstracts the underlying database implementation and defines the
// store operations used by the catalog sync, the watch matcher and the
// command surface.
type Interface interface {
	Open() error
	Close() error

	// series catalog
	ReplaceActiveSeries(series []Series) error
	GetActiveSeries() (map[int64]Series, error)

	// watches
	UpsertWatch(watch *Watch) error
	WatchesForDestination(destinationID string) ([]Watch, error)
	WatchesByDestination() (map[string][]Watch, error)
	DeleteWatch(destinationID string, seriesID int64) error
	DeleteDestination(destinationID string) error
	DeleteGroup(groupID string) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new store instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// ReplaceActiveSeries writes a freshly synced catalog in one transaction:
// every existing row is marked inactive first, then each fetched series is
// upserted as active. A series missing from the feed thus goes inactive
// without losing its row or the watches that reference it.
func (ds *DataStore) ReplaceActiveSeries(series []Series) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Series{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return fmt.Errorf("marking series inactive: %w", err)
		}
		for i := range series {
			series[i].Active = true
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "series_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"active", "name", "reg_official", "reg_split",
					"race_week", "track_name", "track_config", "track_category",
					"updated_at",
				}),
			}).Create(&series[i]).Error; err != nil {
				return fmt.Errorf("upserting series %d: %w", series[i].SeriesID, err)
			}
		}
		return nil
	})
}

// GetActiveSeries returns the active catalog keyed by series id.
func (ds *DataStore) GetActiveSeries() (map[int64]Series, error) {
	var rows []Series
	if err := ds.DB.Where("active = ?", true).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading active series: %w", err)
	}
	res := make(map[int64]Series, len(rows))
	for i := range rows {
		res[rows[i].SeriesID] = rows[i]
	}
	return res, nil
}

// UpsertWatch creates or replaces the watch for (destination, series).
// MaxReg is clamped so the band always spans at least one value above MinReg.
func (ds *DataStore) UpsertWatch(watch *Watch) error {
	if watch.MaxReg < watch.MinReg+1 {
		watch.MaxReg = watch.MinReg + 1
	}
	if err := ds.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "destination_id"}, {Name: "series_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"group_id", "min_reg", "max_reg",
			"notify_on_open", "notify_on_close", "updated_at",
		}),
	}).Create(watch).Error; err != nil {
		return fmt.Errorf("upserting watch for %s/%d: %w", watch.DestinationID, watch.SeriesID, err)
	}
	return nil
}

// WatchesForDestination returns the watches for one destination in stored
// order, with series names joined in.
func (ds *DataStore) WatchesForDestination(destinationID string) ([]Watch, error) {
	return ds.queryWatches("watches.destination_id = ?", destinationID)
}

// WatchesByDestination returns every watch grouped by destination, preserving
// stored order within each destination.
func (ds *DataStore) WatchesByDestination() (map[string][]Watch, error) {
	watches, err := ds.queryWatches("")
	if err != nil {
		return nil, err
	}
	res := make(map[string][]Watch)
	for i := range watches {
		res[watches[i].DestinationID] = append(res[watches[i].DestinationID], watches[i])
	}
	return res, nil
}

func (ds *DataStore) queryWatches(cond string, args ...any) ([]Watch, error) {
	var watches []Watch
	q := ds.DB.Model(&Watch{}).
		Select("watches.*, series.name AS series_name").
		Joins("INNER JOIN series ON series.series_id = watches.series_id").
		Order("watches.id")
	if cond != "" {
		q = q.Where(cond, args...)
	}
	if err := q.Find(&watches).Error; err != nil {
		return nil, fmt.Errorf("loading watches: %w", err)
	}
	return watches, nil
}

// DeleteWatch removes the watch for (destination, series).
func (ds *DataStore) DeleteWatch(destinationID string, seriesID int64) error {
	if err := ds.DB.Where("destination_id = ? AND series_id = ?", destinationID, seriesID).
		Delete(&Watch{}).Error; err != nil {
		return fmt.Errorf("deleting watch for %s/%d: %w", destinationID, seriesID, err)
	}
	return nil
}

// DeleteDestination removes every watch for a destination, used when the
// destination channel is removed.
func (ds *DataStore) DeleteDestination(destinationID string) error {
	if err := ds.DB.Where("destination_id = ?", destinationID).Delete(&Watch{}).Error; err != nil {
		return fmt.Errorf("deleting watches for destination %s: %w", destinationID, err)
	}
	return nil
}

// DeleteGroup removes every watch under a parent grouping, used when the
// whole group (e.g. a guild) tears down.
func (ds *DataStore) DeleteGroup(groupID string) error {
	if err := ds.DB.Where("group_id = ?", groupID).Delete(&Watch{}).Error; err != nil {
		return fmt.Errorf("deleting watches for group %s: %w", groupID, err)
	}
	return nil
}
