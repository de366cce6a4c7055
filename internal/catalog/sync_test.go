package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/datastore"
	"github.com/racewatch/regbot/internal/iracing"
)

type fakeUpstream struct {
	series  []iracing.Series
	seasons []iracing.Season
	err     error
}

func (f *fakeUpstream) SeriesList(ctx context.Context) ([]iracing.Series, error) {
	return f.series, f.err
}

func (f *fakeUpstream) Seasons(ctx context.Context) ([]iracing.Season, error) {
	return f.seasons, f.err
}

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = ":memory:"
	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	return store
}

func strptr(s string) *string { return &s }

func testUpstream() *fakeUpstream {
	return &fakeUpstream{
		series: []iracing.Series{
			{SeriesID: 139, SeriesName: "Formula Vee", MinStarters: 8, MaxStarters: 24},
			{SeriesID: 228, SeriesName: "GT3 Challenge", MinStarters: 10, MaxStarters: 30},
			{SeriesID: 305, SeriesName: "Radical Cup", MinStarters: 6, MaxStarters: 20},
		},
		seasons: []iracing.Season{
			{
				Active: true, SeasonID: 4001, SeriesID: 139, RaceWeek: 2,
				Schedules: []iracing.Schedule{
					{SeriesID: 139, RaceWeekNum: 1, Track: iracing.Track{TrackName: "Lime Rock Park"}},
					{SeriesID: 139, RaceWeekNum: 2, Track: iracing.Track{
						TrackName:  "Okayama International Circuit",
						ConfigName: strptr("Full Course"),
						Category:   strptr("road"),
					}},
				},
			},
			{
				// No schedule row for race week 5: skipped with a warning.
				Active: true, SeasonID: 4002, SeriesID: 228, RaceWeek: 5,
				Schedules: []iracing.Schedule{
					{SeriesID: 228, RaceWeekNum: 0, Track: iracing.Track{TrackName: "Monza"}},
				},
			},
			{
				// Unknown series id: skipped.
				Active: true, SeasonID: 4003, SeriesID: 999, RaceWeek: 0,
				Schedules: []iracing.Schedule{
					{SeriesID: 999, RaceWeekNum: 0, Track: iracing.Track{TrackName: "Spa"}},
				},
			},
			{
				Active: true, SeasonID: 4004, SeriesID: 305, RaceWeek: 0,
				Schedules: []iracing.Schedule{
					{SeriesID: 305, RaceWeekNum: 0, Track: iracing.Track{TrackName: "Road Atlanta"}},
				},
			},
		},
	}
}

func TestSyncJoinsSeriesAndSeasons(t *testing.T) {
	store := newTestStore(t)
	state := NewState()
	svc := NewService(testUpstream(), store, state)

	active, err := svc.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)

	vee := active[139]
	assert.Equal(t, "Formula Vee", vee.Name)
	assert.Equal(t, int64(8), vee.RegOfficial)
	assert.Equal(t, int64(24), vee.RegSplit)
	assert.Equal(t, int64(2), vee.RaceWeek)
	assert.Equal(t, "Okayama International Circuit", vee.TrackName)
	assert.Equal(t, "Full Course", vee.TrackConfig)
	assert.Equal(t, "road", vee.TrackCategory)

	// Published to the shared state and persisted to the store.
	got, ok := state.Get(305)
	require.True(t, ok)
	assert.Equal(t, "Radical Cup", got.Name)

	rows, err := store.GetActiveSeries()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestNeedsSyncDayBoundary(t *testing.T) {
	svc := NewService(testUpstream(), newTestStore(t), NewState())
	assert.True(t, svc.NeedsSync(), "never synced yet")

	base := time.Date(2026, 3, 14, 23, 50, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(5 * time.Minute) }
	assert.False(t, svc.NeedsSync(), "same UTC day")

	svc.now = func() time.Time { return base.Add(15 * time.Minute) }
	assert.True(t, svc.NeedsSync(), "UTC date advanced")
}

func TestServiceCloseReleasesLogger(t *testing.T) {
	svc := NewService(testUpstream(), newTestStore(t), NewState())
	// The log file reopens on the next write, so closing twice is safe.
	assert.NoError(t, svc.Close())
	assert.NoError(t, svc.Close())
}

func TestStateSearch(t *testing.T) {
	state := NewState()
	state.Publish(map[int64]SeriesInfo{
		139: {SeriesID: 139, Name: "Formula Vee"},
		228: {SeriesID: 228, Name: "GT3 Challenge"},
		305: {SeriesID: 305, Name: "Formula A"},
	})

	res := state.Search("formula")
	require.Len(t, res, 2)
	assert.Equal(t, "Formula A", res[0].Name)
	assert.Equal(t, "Formula Vee", res[1].Name)

	assert.Len(t, state.Search(""), 3)
	assert.Empty(t, state.Search("oval"))
}

func TestDefaultBounds(t *testing.T) {
	info := &SeriesInfo{RegOfficial: 10, RegSplit: 30}
	minReg, maxReg := info.DefaultBounds()
	assert.Equal(t, int64(5), minReg)
	assert.Equal(t, int64(20), maxReg)
}
