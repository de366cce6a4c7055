package iracing

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/errors"
)

const (
	testAuthURL = "https://oauth.test.example/oauth2/token"
	testAPIURL  = "https://members.test.example/data"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	settings := &conf.Settings{}
	settings.Upstream.AuthURL = testAuthURL
	settings.Upstream.APIURL = testAPIURL
	settings.Upstream.ClientID = "regbot"
	settings.Upstream.ClientSecret = "sekrit"
	settings.Upstream.Username = "driver@example.com"
	settings.Upstream.Password = "hunter2"
	settings.Upstream.Timeout = 5
	settings.Upstream.CacheTTL = 30

	client, err := NewClient(settings)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func registerAuthResponder(t *testing.T, wantGrant string) {
	t.Helper()
	httpmock.RegisterResponder(http.MethodPost, testAuthURL,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, wantGrant, req.PostForm.Get("grant_type"))
			assert.Equal(t, "regbot", req.PostForm.Get("client_id"))
			assert.NotEmpty(t, req.PostForm.Get("client_secret"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"access_token":             "access-1",
				"expires_in":               600,
				"refresh_token":            "refresh-1",
				"refresh_token_expires_in": 3600,
			})
		})
}

func registerLinkEndpoint(t *testing.T, path string, payload any) {
	t.Helper()
	linkURL := "https://cdn.test.example/" + path
	httpmock.RegisterResponder(http.MethodGet, testAPIURL+"/"+path,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer access-1", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"link": linkURL})
		})
	httpmock.RegisterResponder(http.MethodGet, linkURL,
		func(req *http.Request) (*http.Response, error) {
			assert.Empty(t, req.Header.Get("Authorization"), "pre-signed link needs no bearer token")
			return httpmock.NewJsonResponse(http.StatusOK, payload)
		})
}

func TestMaskNormalizesID(t *testing.T) {
	assert.Equal(t, mask("sekrit", "  Driver@Example.COM "), mask("sekrit", "driver@example.com"))
	assert.NotEqual(t, mask("sekrit", "a"), mask("sekrit", "b"))
	// base64 of a sha256 digest
	assert.Len(t, mask("sekrit", "driver"), 44)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	settings := &conf.Settings{}
	settings.Upstream.AuthURL = testAuthURL
	settings.Upstream.APIURL = testAPIURL

	_, err := NewClient(settings)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.GetCategory(err))
}

func TestFetchResolvesLinkIndirection(t *testing.T) {
	client := newTestClient(t)
	registerAuthResponder(t, "password_limited")
	registerLinkEndpoint(t, "season/race_guide", map[string]any{
		"success": true,
		"sessions": []map[string]any{
			{"series_id": 139, "session_id": 77, "entry_count": 12},
		},
	})

	guide, err := client.RaceGuide(context.Background())
	require.NoError(t, err)
	require.Len(t, guide.Sessions, 1)
	assert.Equal(t, int64(139), guide.Sessions[0].SeriesID)
	require.NotNil(t, guide.Sessions[0].SessionID)
	assert.Equal(t, int64(77), *guide.Sessions[0].SessionID)
}

func TestAccessTokenReused(t *testing.T) {
	client := newTestClient(t)
	registerAuthResponder(t, "password_limited")
	registerLinkEndpoint(t, "season/race_guide", map[string]any{"sessions": []any{}})

	_, err := client.RaceGuide(context.Background())
	require.NoError(t, err)
	_, err = client.RaceGuide(context.Background())
	require.NoError(t, err)

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+testAuthURL], "token acquired once, reused while valid")
}

func TestAccessTokenRefreshGrant(t *testing.T) {
	client := newTestClient(t)
	registerAuthResponder(t, "refresh_token")
	registerLinkEndpoint(t, "season/race_guide", map[string]any{"sessions": []any{}})

	// Expired access token, still-valid refresh token.
	now := client.now()
	client.auth = auth{
		access:  token{value: "stale", expires: now.Add(-time.Minute)},
		refresh: token{value: "refresh-0", expires: now.Add(time.Hour)},
	}

	_, err := client.RaceGuide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["POST "+testAuthURL])
}

func TestFetchErrorCategories(t *testing.T) {
	cases := []struct {
		status   int
		category errors.ErrorCategory
	}{
		{http.StatusTooManyRequests, errors.CategoryRateLimit},
		{http.StatusUnauthorized, errors.CategoryAuth},
		{http.StatusNotFound, errors.CategoryNotFound},
		{http.StatusInternalServerError, errors.CategoryNetwork},
	}
	for _, tc := range cases {
		client := newTestClient(t)
		registerAuthResponder(t, "password_limited")
		httpmock.RegisterResponder(http.MethodGet, testAPIURL+"/season/race_guide",
			httpmock.NewStringResponder(tc.status, ""))

		_, err := client.RaceGuide(context.Background())
		require.Error(t, err)
		assert.Equal(t, tc.category, errors.GetCategory(err), "status %d", tc.status)
		httpmock.Reset()
	}
}

func TestCatalogEndpointsCached(t *testing.T) {
	client := newTestClient(t)
	registerAuthResponder(t, "password_limited")
	registerLinkEndpoint(t, "series/get", []map[string]any{
		{"series_id": 139, "series_name": "Formula Vee", "min_starters": 8, "max_starters": 24},
	})

	first, err := client.SeriesList(context.Background())
	require.NoError(t, err)
	second, err := client.SeriesList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["GET "+testAPIURL+"/series/get"])

	client.ClearCache()
	_, err = client.SeriesList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetCallCountInfo()["GET "+testAPIURL+"/series/get"])
}
