// model.go this code defines the data model for the application
package datastore

import (
	"fmt"
	"time"
)

// Series is one row of the series catalog. Rows are upserted by the daily
// catalog sync; series that disappear from the upstream feed are marked
// inactive rather than deleted so existing watches keep their join target.
type Series struct {
	SeriesID      int64  `gorm:"primaryKey"`
	Active        bool   `gorm:"index:idx_series_active;not null"`
	Name          string `gorm:"not null"`
	RegOfficial   int64  `gorm:"not null"` // entries required for an official session
	RegSplit      int64  `gorm:"not null"` // entries at which the field splits
	RaceWeek      int64  `gorm:"not null"`
	TrackName     string `gorm:"not null"`
	TrackConfig   string
	TrackCategory string
	UpdatedAt     time.Time
}

// Watch is a subscriber's configuration for one series, keyed by
// (destination, series). Upserting the same key replaces the prior config.
type Watch struct {
	ID            uint   `gorm:"primaryKey"`
	DestinationID string `gorm:"uniqueIndex:idx_watch_dest_series;not null"`
	GroupID       string `gorm:"index:idx_watch_group"` // parent grouping for cascade deletes, optional
	SeriesID      int64  `gorm:"uniqueIndex:idx_watch_dest_series;index:idx_watch_series;not null"`
	MinReg        int64  `gorm:"not null"`
	MaxReg        int64  `gorm:"not null"`
	NotifyOnOpen  bool   `gorm:"not null"`
	NotifyOnClose bool   `gorm:"not null"`
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// SeriesName is populated from the series table on reads, never stored.
	SeriesName string `gorm:"-"`
}

// Describe renders the watch the way it is echoed back to the subscriber.
func (w *Watch) Describe() string {
	out := fmt.Sprintf("%s between %d and %d entries.", w.SeriesName, w.MinReg, w.MaxReg)
	switch {
	case w.NotifyOnOpen && w.NotifyOnClose:
		out += " Registration open and close will also be announced."
	case w.NotifyOnOpen:
		out += " Registration open will also be announced."
	case w.NotifyOnClose:
		out += " Registration close will also be announced."
	}
	return out
}
