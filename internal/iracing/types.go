package iracing

import "time"

// link is the indirection payload returned by every data API endpoint. The
// actual document must be fetched from the pre-signed URL it points at.
type link struct {
	Link    string     `json:"link"`
	Expires *time.Time `json:"expires"`
}

// authResult is the OAuth token endpoint response.
type authResult struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}

// RaceGuide is the lookahead window of upcoming sessions across all series.
type RaceGuide struct {
	Subscribed     bool             `json:"subscribed"`
	Sessions       []RaceGuideEntry `json:"sessions"`
	BlockBeginTime string           `json:"block_begin_time"`
	BlockEndTime   string           `json:"block_end_time"`
	Success        bool             `json:"success"`
}

// RaceGuideEntry is one upcoming session for a series. SessionID is non-nil
// exactly when a session object exists, which means the registration window
// is open.
type RaceGuideEntry struct {
	SeasonID     int64     `json:"season_id"`
	StartTime    time.Time `json:"start_time"`
	SuperSession bool      `json:"super_session"`
	SeriesID     int64     `json:"series_id"`
	RaceWeekNum  int64     `json:"race_week_num"`
	EndTime      string    `json:"end_time"`
	SessionID    *int64    `json:"session_id"`
	EntryCount   int64     `json:"entry_count"`
}

// NumSplits returns how many parallel sessions the entry count produces for
// the given split threshold. Zero entries count as a single unsplit field.
func (e *RaceGuideEntry) NumSplits(splitAt int64) int64 {
	if e.EntryCount < 1 {
		return 1
	}
	return 1 + (e.EntryCount-1)/splitAt
}

// Season is one time-bounded instance of a series, divided into race weeks.
type Season struct {
	Active        bool       `json:"active"`
	Official      bool       `json:"official"`
	StartDate     time.Time  `json:"start_date"`
	RaceWeek      int64      `json:"race_week"`
	MaxWeeks      int64      `json:"max_weeks"`
	SeasonID      int64      `json:"season_id"`
	SeasonQuarter int64      `json:"season_quarter"`
	SeasonYear    int64      `json:"season_year"`
	SeriesID      int64      `json:"series_id"`
	SeasonName    string     `json:"season_name"`
	Schedules     []Schedule `json:"schedules"`
}

// Schedule is one race week of a season.
type Schedule struct {
	SeriesID    int64  `json:"series_id"`
	SeasonID    int64  `json:"season_id"`
	RaceWeekNum int64  `json:"race_week_num"`
	SeriesName  string `json:"series_name"`
	SeasonName  string `json:"season_name"`
	Track       Track  `json:"track"`
}

// Track identifies the circuit and configuration a race week runs on.
type Track struct {
	TrackID    int64   `json:"track_id"`
	TrackName  string  `json:"track_name"`
	ConfigName *string `json:"config_name"`
	Category   *string `json:"category"`
}

// Series is the static description of a series, including its registration
// thresholds: MinStarters entries make a session official, MaxStarters is
// the split increment.
type Series struct {
	Category        string  `json:"category"`
	CategoryID      int64   `json:"category_id"`
	Eligible        bool    `json:"eligible"`
	MaxStarters     int64   `json:"max_starters"`
	MinStarters     int64   `json:"min_starters"`
	OvalCautionType int64   `json:"oval_caution_type"`
	RoadCautionType int64   `json:"road_caution_type"`
	SearchFilters   *string `json:"search_filters"`
	SeriesID        int64   `json:"series_id"`
	SeriesName      string  `json:"series_name"`
	SeriesShortName string  `json:"series_short_name"`
}
