package regwatch

import (
	"github.com/racewatch/regbot/internal/catalog"
	"github.com/racewatch/regbot/internal/iracing"
)

// diffEngine keeps the last-seen race guide snapshot per series and turns a
// new snapshot into at most one announcement. State is owned exclusively by
// the poll loop.
type diffEngine struct {
	prev map[int64]iracing.RaceGuideEntry
}

func newDiffEngine() *diffEngine {
	return &diffEngine{prev: make(map[int64]iracing.RaceGuideEntry)}
}

// observe compares the new snapshot against the stored one and returns the
// resulting announcement, or nil. The stored snapshot is replaced either way.
// The first observation of a series only establishes the baseline.
func (e *diffEngine) observe(curr iracing.RaceGuideEntry, info catalog.SeriesInfo) *Announcement {
	prev, seen := e.prev[curr.SeriesID]
	e.prev[curr.SeriesID] = curr
	if !seen {
		return nil
	}

	kind, ok := classify(&prev, &curr)
	if !ok {
		return nil
	}
	return &Announcement{
		SeriesID:    curr.SeriesID,
		SeriesName:  info.Name,
		Prev:        prev,
		Curr:        curr,
		Kind:        kind,
		RegOfficial: info.RegOfficial,
		RegSplit:    info.RegSplit,
	}
}

// tracked returns the number of series with a stored baseline.
func (e *diffEngine) tracked() int {
	return len(e.prev)
}

// prune drops baselines for series no longer present in the catalog.
func (e *diffEngine) prune(active *catalog.State) {
	for id := range e.prev {
		if _, ok := active.Get(id); !ok {
			delete(e.prev, id)
		}
	}
}

// classify derives the transition kind from a (prev, curr) snapshot pair.
// A nil session id means no open registration window.
func classify(prev, curr *iracing.RaceGuideEntry) (Kind, bool) {
	switch {
	case prev.SessionID == nil && curr.SessionID != nil:
		return KindOpened, true
	case prev.SessionID != nil && curr.SessionID != nil &&
		prev.EntryCount != curr.EntryCount &&
		(prev.EntryCount != 0 || curr.EntryCount != 0):
		// 0 -> 0 carries no information even if other fields moved
		return KindCountChanged, true
	case prev.SessionID != nil && curr.SessionID == nil && prev.EntryCount > 0:
		// closing with zero entries is not worth reporting
		return KindClosed, true
	}
	return 0, false
}
