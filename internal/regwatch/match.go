package regwatch

import (
	"fmt"

	"github.com/racewatch/regbot/internal/datastore"
)

// Matches reports whether a watch accepts an announcement. Pure predicate.
// Callers look up watches by series id, so a series mismatch is a
// programming error and panics.
func Matches(w *datastore.Watch, a *Announcement) bool {
	if w.SeriesID != a.SeriesID {
		panic(fmt.Sprintf("watch for series %d evaluated against announcement for series %d",
			w.SeriesID, a.SeriesID))
	}

	switch a.Kind {
	case KindOpened:
		return w.NotifyOnOpen
	case KindClosed:
		// A close is only interesting if the session had reached the
		// watch's lower bound before it went away.
		return w.NotifyOnClose && a.Prev.EntryCount >= w.MinReg
	case KindCountChanged:
		inBand := a.Curr.EntryCount >= w.MinReg && a.Curr.EntryCount <= w.MaxReg
		return inBand || a.SplitsChanged()
	}
	return false
}
