// Package regwatch holds the registration watch core: the race guide poll
// loop, the per-series diff state machine and the watch matcher.
package regwatch

import (
	"github.com/racewatch/regbot/internal/iracing"
)

// Kind classifies a registration transition. It is a closed set; both the
// diff engine and the renderer switch over it exhaustively.
type Kind int

const (
	// KindOpened fires when a series gains an open session.
	KindOpened Kind = iota
	// KindCountChanged fires when the entry count of an open session moves.
	KindCountChanged
	// KindClosed fires when a session with entries disappears.
	KindClosed
)

func (k Kind) String() string {
	switch k {
	case KindOpened:
		return "opened"
	case KindCountChanged:
		return "count_changed"
	case KindClosed:
		return "closed"
	}
	return "unknown"
}

// Announcement is one detected transition for one series in one poll. It is
// consumed immediately by the matcher and renderer, never persisted.
type Announcement struct {
	SeriesID    int64
	SeriesName  string
	Prev        iracing.RaceGuideEntry
	Curr        iracing.RaceGuideEntry
	Kind        Kind
	RegOfficial int64
	RegSplit    int64
}

// SplitsChanged reports whether the split count differs between the previous
// and current snapshot. Derived, not a fourth transition kind.
func (a *Announcement) SplitsChanged() bool {
	return a.Prev.NumSplits(a.RegSplit) != a.Curr.NumSplits(a.RegSplit)
}
