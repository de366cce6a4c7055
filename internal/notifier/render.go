// Package notifier renders announcements into human-readable lines and
// batches them into per-destination messages under the transport limit.
package notifier

import (
	"fmt"
	"time"

	"github.com/racewatch/regbot/internal/regwatch"
)

// render turns one announcement into the sentence delivered to subscribers.
func render(a *regwatch.Announcement, now time.Time) string {
	switch a.Kind {
	case regwatch.KindOpened:
		return fmt.Sprintf("%s: registration opened, race starts %s.",
			a.SeriesName, startsIn(a.Curr.StartTime, now))
	case regwatch.KindCountChanged:
		return fmt.Sprintf("%s: %d %s registered%s, race starts %s.",
			a.SeriesName, a.Curr.EntryCount,
			plural(a.Curr.EntryCount, "driver", "drivers"),
			qualifiers(a), startsIn(a.Curr.StartTime, now))
	case regwatch.KindClosed:
		return fmt.Sprintf("%s: registration closed with %d %s%s.",
			a.SeriesName, a.Prev.EntryCount,
			plural(a.Prev.EntryCount, "driver", "drivers"),
			closedQualifier(a))
	}
	return ""
}

// qualifiers appends the official and split state for an open session.
func qualifiers(a *regwatch.Announcement) string {
	out := ""
	if a.Curr.EntryCount >= a.RegOfficial {
		out += " (official)"
	}
	if splits := a.Curr.NumSplits(a.RegSplit); splits > 1 {
		out += fmt.Sprintf(" [%d splits]", splits)
	}
	return out
}

func closedQualifier(a *regwatch.Announcement) string {
	if a.Prev.EntryCount >= a.RegOfficial {
		return " (official)"
	}
	return ""
}

// startsIn renders the minutes until the session start time.
func startsIn(start, now time.Time) string {
	mins := int64(start.Sub(now).Round(time.Minute).Minutes())
	if mins <= 0 {
		return "now"
	}
	return fmt.Sprintf("in %d min", mins)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
