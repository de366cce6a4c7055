// Package catalog reconciles the upstream series and season lists into the
// persisted series table and keeps an in-memory snapshot of the active
// catalog for the poll loop and the command surface.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/racewatch/regbot/internal/datastore"
)

// SeriesInfo is one active series with its registration thresholds for the
// current race week. Replaced wholesale on each sync.
type SeriesInfo struct {
	SeriesID      int64
	Name          string
	RegOfficial   int64 // entries required for an official session
	RegSplit      int64 // entries at which the field splits
	RaceWeek      int64
	TrackName     string
	TrackConfig   string
	TrackCategory string
}

// DefaultBounds derives the default watch band for a series: the lower bound
// is half the official threshold, the upper bound sits halfway between the
// official and split thresholds.
func (s *SeriesInfo) DefaultBounds() (minReg, maxReg int64) {
	minReg = s.RegOfficial / 2
	maxReg = s.RegOfficial + (s.RegSplit-s.RegOfficial)/2
	return minReg, maxReg
}

// FromRecord rebuilds the series info from its persisted row.
func FromRecord(row *datastore.Series) SeriesInfo {
	return SeriesInfo{
		SeriesID:      row.SeriesID,
		Name:          row.Name,
		RegOfficial:   row.RegOfficial,
		RegSplit:      row.RegSplit,
		RaceWeek:      row.RaceWeek,
		TrackName:     row.TrackName,
		TrackConfig:   row.TrackConfig,
		TrackCategory: row.TrackCategory,
	}
}

// maxSearchResults caps autocomplete responses.
const maxSearchResults = 25

// State is the shared in-memory view of the active catalog. The sync loop
// publishes into it; the command surface reads from it. Safe for concurrent
// use.
type State struct {
	mu     sync.RWMutex
	series map[int64]SeriesInfo
}

func NewState() *State {
	return &State{series: make(map[int64]SeriesInfo)}
}

// Publish replaces the whole catalog snapshot.
func (s *State) Publish(series map[int64]SeriesInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = series
}

// Get returns the series info for an id, if active.
func (s *State) Get(seriesID int64) (SeriesInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.series[seriesID]
	return info, ok
}

// Len returns the number of active series.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}

// Search returns up to 25 series whose name contains the query,
// case-insensitive, ordered by name. An empty query matches everything.
func (s *State) Search(query string) []SeriesInfo {
	query = strings.ToLower(query)

	s.mu.RLock()
	matches := make([]SeriesInfo, 0, maxSearchResults)
	for _, info := range s.series {
		if query == "" || strings.Contains(strings.ToLower(info.Name), query) {
			matches = append(matches, info)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}
	return matches
}
