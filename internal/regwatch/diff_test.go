package regwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racewatch/regbot/internal/catalog"
	"github.com/racewatch/regbot/internal/iracing"
)

func i64(v int64) *int64 { return &v }

func entry(seriesID int64, sessionID *int64, count int64) iracing.RaceGuideEntry {
	return iracing.RaceGuideEntry{
		SeriesID:   seriesID,
		SeasonID:   seriesID * 10,
		SessionID:  sessionID,
		StartTime:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		EntryCount: count,
	}
}

var veeInfo = catalog.SeriesInfo{
	SeriesID:    139,
	Name:        "Formula Vee",
	RegOfficial: 8,
	RegSplit:    24,
}

func TestFirstObservationIsSilent(t *testing.T) {
	e := newDiffEngine()
	assert.Nil(t, e.observe(entry(139, i64(1), 12), veeInfo))
	assert.Equal(t, 1, e.tracked())
}

func TestOpenedTransition(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, nil, 0), veeInfo)

	a := e.observe(entry(139, i64(1), 0), veeInfo)
	require.NotNil(t, a)
	assert.Equal(t, KindOpened, a.Kind)
	assert.Equal(t, "Formula Vee", a.SeriesName)
	assert.Equal(t, int64(8), a.RegOfficial)
}

func TestCountChangedTransition(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, i64(1), 5), veeInfo)

	a := e.observe(entry(139, i64(1), 9), veeInfo)
	require.NotNil(t, a)
	assert.Equal(t, KindCountChanged, a.Kind)
	assert.Equal(t, int64(5), a.Prev.EntryCount)
	assert.Equal(t, int64(9), a.Curr.EntryCount)
}

func TestEqualCountIsSilent(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, i64(1), 7), veeInfo)
	assert.Nil(t, e.observe(entry(139, i64(2), 7), veeInfo))
}

func TestZeroToZeroIsSilent(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, i64(1), 0), veeInfo)
	assert.Nil(t, e.observe(entry(139, i64(2), 0), veeInfo))
}

func TestClosedTransition(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, i64(1), 11), veeInfo)

	a := e.observe(entry(139, nil, 0), veeInfo)
	require.NotNil(t, a)
	assert.Equal(t, KindClosed, a.Kind)
	assert.Equal(t, int64(11), a.Prev.EntryCount)
}

func TestClosedWithZeroEntriesIsSilent(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, i64(1), 0), veeInfo)
	assert.Nil(t, e.observe(entry(139, nil, 0), veeInfo))
}

func TestSnapshotReplacedWithoutAnnouncement(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, i64(1), 7), veeInfo)

	// Silent update still replaces the baseline: the next change diffs
	// against the latest snapshot, not the original one.
	assert.Nil(t, e.observe(entry(139, i64(1), 7), veeInfo))
	a := e.observe(entry(139, i64(1), 8), veeInfo)
	require.NotNil(t, a)
	assert.Equal(t, int64(7), a.Prev.EntryCount)
}

func TestNumSplits(t *testing.T) {
	e := entry(139, i64(1), 1)
	assert.Equal(t, int64(1), e.NumSplits(10))

	e.EntryCount = 21
	assert.Equal(t, int64(3), e.NumSplits(10))

	e.EntryCount = 0
	assert.Equal(t, int64(1), e.NumSplits(10))
}

func TestSplitsChanged(t *testing.T) {
	a := &Announcement{
		Prev:     entry(139, i64(1), 10),
		Curr:     entry(139, i64(1), 11),
		Kind:     KindCountChanged,
		RegSplit: 10,
	}
	assert.True(t, a.SplitsChanged())

	a.Curr.EntryCount = 9
	assert.False(t, a.SplitsChanged())
}

func TestPruneDropsInactiveSeries(t *testing.T) {
	e := newDiffEngine()
	e.observe(entry(139, i64(1), 5), veeInfo)
	e.observe(entry(228, i64(2), 5), catalog.SeriesInfo{SeriesID: 228, Name: "GT3 Challenge"})

	state := catalog.NewState()
	state.Publish(map[int64]catalog.SeriesInfo{139: veeInfo})
	e.prune(state)

	assert.Equal(t, 1, e.tracked())
	_, stillTracked := e.prev[139]
	assert.True(t, stillTracked)
}
