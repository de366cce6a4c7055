// Package iracing implements the authenticated client for the members data
// API: OAuth password_limited token flow with SHA-256 secret masking, lazy
// token refresh, the API's link indirection, and short-TTL caching of the
// slow-moving catalog endpoints.
package iracing

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/errors"
	"github.com/racewatch/regbot/internal/logging"
)

// Package-level logger specific to the iracing client
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "iracing.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "iracing", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("Failed to initialize iracing file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "iracing")
		closeLogger = func() error { return nil }
	}
}

// expiryBuffer is subtracted from token lifetimes so a token is never used
// right at its expiry boundary.
const expiryBuffer = 30 * time.Second

// token is an OAuth token with its local expiry deadline.
type token struct {
	value   string
	expires time.Time
}

func (t *token) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expires)
}

// auth holds the access/refresh token pair.
type auth struct {
	access  token
	refresh token
}

// Client provides methods for interacting with the members data API.
type Client struct {
	httpClient *http.Client

	authURL            string
	apiURL             string
	clientID           string
	maskedClientSecret string
	username           string
	maskedPassword     string

	mu   sync.Mutex // guards auth
	auth auth

	cache *cache.Cache // catalog endpoint responses
	now   func() time.Time
}

// NewClient creates a new members API client from the upstream settings.
// No network call is made here; tokens are acquired lazily on first use.
func NewClient(settings *conf.Settings) (*Client, error) {
	up := &settings.Upstream
	if up.Username == "" || up.Password == "" || up.ClientSecret == "" {
		return nil, errors.Newf("upstream credentials are required").
			Category(errors.CategoryConfiguration).
			Component("iracing").
			Build()
	}

	cacheTTL := time.Duration(up.CacheTTL) * time.Minute

	c := &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(up.Timeout) * time.Second,
		},
		authURL:            up.AuthURL,
		apiURL:             strings.TrimSuffix(up.APIURL, "/"),
		clientID:           up.ClientID,
		maskedClientSecret: mask(up.ClientSecret, up.ClientID),
		username:           up.Username,
		maskedPassword:     mask(up.Password, up.Username),
		cache:              cache.New(cacheTTL, cacheTTL*2),
		now:                time.Now,
	}

	logger.Info("iracing client initialized",
		"api_url", c.apiURL,
		"auth_url", c.authURL,
		"cache_ttl", cacheTTL,
		"username", up.Username)

	return c, nil
}

// Close cleans up client resources.
func (c *Client) Close() {
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing iracing logger: %v", err)
		}
	}
}

// mask derives the credential form the auth endpoint expects:
// base64(sha256(secret + lowercase(trimmed id))).
func mask(secret, id string) string {
	h := sha256.New()
	normalizedID := strings.ToLower(strings.TrimSpace(id))
	h.Write([]byte(secret + normalizedID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// fetchToken calls the OAuth token endpoint with the supplied grant params.
func (c *Client) fetchToken(ctx context.Context, params url.Values) (auth, error) {
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.maskedClientSecret)

	start := c.now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(params.Encode()))
	if err != nil {
		return auth{}, errors.Newf("failed to create token request: %w", err).
			Category(errors.CategoryNetwork).
			Component("iracing").
			Build()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return auth{}, errors.Newf("token request failed: %w", err).
			Category(errors.CategoryNetwork).
			Component("iracing").
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return auth{}, errors.Newf("failed to read token response: %w", err).
			Category(errors.CategoryNetwork).
			Component("iracing").
			Build()
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("token endpoint error",
			"status_code", resp.StatusCode,
			"body", string(body))
		return auth{}, errors.Newf("failed to acquire access token (status %d)", resp.StatusCode).
			Category(errors.CategoryAuth).
			Context("status_code", resp.StatusCode).
			Component("iracing").
			Build()
	}

	var ar authResult
	if err := json.Unmarshal(body, &ar); err != nil {
		return auth{}, errors.Newf("failed to parse token response: %w", err).
			Category(errors.CategoryAuth).
			Component("iracing").
			Build()
	}

	logger.Debug("acquired tokens from auth endpoint",
		"access_expires_in", ar.ExpiresIn,
		"refresh_expires_in", ar.RefreshTokenExpiresIn)

	return auth{
		access: token{
			value:   ar.AccessToken,
			expires: start.Add(time.Duration(ar.ExpiresIn)*time.Second - expiryBuffer),
		},
		refresh: token{
			value:   ar.RefreshToken,
			expires: start.Add(time.Duration(ar.RefreshTokenExpiresIn)*time.Second - expiryBuffer),
		},
	}, nil
}

// accessToken returns a current access token, refreshing or re-authenticating
// as needed. The lock is never held across the network call; a concurrent
// refresh is harmless, last writer wins.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	now := c.now()
	c.mu.Lock()
	if c.auth.access.valid(now) {
		t := c.auth.access.value
		c.mu.Unlock()
		return t, nil
	}
	refresh := c.auth.refresh
	c.mu.Unlock()

	var params url.Values
	if refresh.valid(now) {
		params = url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refresh.value},
		}
	} else {
		params = url.Values{
			"grant_type": {"password_limited"},
			"username":   {c.username},
			"password":   {c.maskedPassword},
			"scope":      {"iracing.auth"},
		}
	}

	newAuth, err := c.fetchToken(ctx, params)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.auth = newAuth
	c.mu.Unlock()
	return newAuth.access.value, nil
}

// fetch retrieves the document behind path, resolving the API's link
// indirection: the first request returns a pre-signed URL, the second
// returns the actual payload.
func (c *Client) fetch(ctx context.Context, path string, result any) error {
	accessToken, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/%s", c.apiURL, path)
	logger.Debug("starting members API request", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", u).
			Component("iracing").
			Build()
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Newf("request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", u).
			Component("iracing").
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", u).
			Component("iracing").
			Build()
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			// The reset hints are logged for operators, not parsed into a
			// wait time; the caller's generic backoff handles pacing.
			logger.Warn("rate limited by members API",
				"limit", resp.Header.Get("x-ratelimit-limit"),
				"remaining", resp.Header.Get("x-ratelimit-remaining"),
				"reset", resp.Header.Get("x-ratelimit-reset"))
		}
		return errors.Newf("http error %d for %s", resp.StatusCode, u).
			Category(statusCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", u).
			Component("iracing").
			Build()
	}

	var lnk link
	if err := json.Unmarshal(body, &lnk); err != nil || lnk.Link == "" {
		return errors.Newf("failed to parse link response for %s: %w", u, err).
			Category(errors.CategoryNetwork).
			Context("url", u).
			Component("iracing").
			Build()
	}

	logger.Debug("resolving link", "url", lnk.Link)
	linkReq, err := http.NewRequestWithContext(ctx, http.MethodGet, lnk.Link, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create link request: %w", err).
			Category(errors.CategoryNetwork).
			Component("iracing").
			Build()
	}
	linkResp, err := c.httpClient.Do(linkReq)
	if err != nil {
		return errors.Newf("link request failed: %w", err).
			Category(errors.CategoryNetwork).
			Component("iracing").
			Build()
	}
	defer func() { _ = linkResp.Body.Close() }()

	linkBody, err := io.ReadAll(linkResp.Body)
	if err != nil {
		return errors.Newf("failed to read link response: %w", err).
			Category(errors.CategoryNetwork).
			Component("iracing").
			Build()
	}
	if linkResp.StatusCode != http.StatusOK {
		return errors.Newf("http error %d resolving link for %s", linkResp.StatusCode, u).
			Category(statusCategory(linkResp.StatusCode)).
			Context("status_code", linkResp.StatusCode).
			Component("iracing").
			Build()
	}

	if err := json.Unmarshal(linkBody, result); err != nil {
		preview := string(linkBody)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		logger.Error("failed to parse members API response",
			"error", err,
			"url", u,
			"response_preview", preview)
		return errors.Newf("failed to parse response for %s: %w", u, err).
			Category(errors.CategoryNetwork).
			Context("url", u).
			Component("iracing").
			Build()
	}

	return nil
}

// fetchCached serves path from the catalog response cache when possible.
func (c *Client) fetchCached(ctx context.Context, path string, result any, load func() (any, error)) error {
	if cached, found := c.cache.Get(path); found {
		return copyCached(cached, result)
	}
	v, err := load()
	if err != nil {
		return err
	}
	c.cache.Set(path, v, cache.DefaultExpiration)
	return copyCached(v, result)
}

// copyCached moves a cached document into the caller's result pointer.
func copyCached(cached, result any) error {
	switch dst := result.(type) {
	case *[]Series:
		src, ok := cached.([]Series)
		if !ok {
			return errors.Newf("unexpected cached type %T", cached).Component("iracing").Build()
		}
		*dst = src
	case *[]Season:
		src, ok := cached.([]Season)
		if !ok {
			return errors.Newf("unexpected cached type %T", cached).Component("iracing").Build()
		}
		*dst = src
	default:
		return errors.Newf("unsupported cache result type %T", result).Component("iracing").Build()
	}
	return nil
}

// RaceGuide returns the upcoming session window across all series. Never
// cached; registration counts change between polls.
func (c *Client) RaceGuide(ctx context.Context) (*RaceGuide, error) {
	var guide RaceGuide
	if err := c.fetch(ctx, "season/race_guide", &guide); err != nil {
		return nil, err
	}
	return &guide, nil
}

// Seasons returns all current seasons.
func (c *Client) Seasons(ctx context.Context) ([]Season, error) {
	const path = "series/seasons?include_series=false"
	var seasons []Season
	err := c.fetchCached(ctx, path, &seasons, func() (any, error) {
		var s []Season
		if err := c.fetch(ctx, path, &s); err != nil {
			return nil, err
		}
		return s, nil
	})
	return seasons, err
}

// SeriesList returns the static series catalog.
func (c *Client) SeriesList(ctx context.Context) ([]Series, error) {
	const path = "series/get"
	var series []Series
	err := c.fetchCached(ctx, path, &series, func() (any, error) {
		var s []Series
		if err := c.fetch(ctx, path, &s); err != nil {
			return nil, err
		}
		return s, nil
	})
	return series, err
}

// ClearCache drops all cached catalog responses.
func (c *Client) ClearCache() {
	c.cache.Flush()
}

// statusCategory maps an HTTP status code to an error category.
func statusCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryAuth
	case http.StatusTooManyRequests:
		return errors.CategoryRateLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}
