package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vmunix/marquee/internal/metrics"
)

const (
	defaultBaseURL        = "https://api.themoviedb.org"
	defaultYouTubeBaseURL = "https://www.youtube.com/watch?v="
	defaultCacheTTL       = 24 * time.Hour
	defaultMaxRetries     = 3
	defaultBackoff        = 500 * time.Millisecond
	defaultMaxRetryWait   = 30 * time.Second
)

var (
	// ErrNotFound is returned when a movie doesn't exist in TMDB.
	ErrNotFound = errors.New("movie not found")

	// ErrNoTrailer is returned when a movie has no YouTube trailer.
	ErrNoTrailer = errors.New("no trailer")

	// ErrRateLimited is the last error of a request that kept receiving 429.
	ErrRateLimited = errors.New("rate limited")
)

// Client is a TMDB API client.
//
// Requests pass through a client-side rate limiter and are retried on 429
// (honoring Retry-After), 5xx and transport errors with exponential
// backoff. Responses are cached in memory and, when configured, in a
// SharedCache.
type Client struct {
	apiKey         string
	baseURL        string
	youtubeBaseURL string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	backoff        time.Duration
	maxRetryWait   time.Duration
	cacheTTL       time.Duration
	shared         SharedCache
	log            *slog.Logger

	movies    *cache[int64, *Movie]
	trailers  *cache[int64, string]
	languages *cache[string, []Language]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithYouTubeBaseURL sets the prefix trailer keys are appended to.
func WithYouTubeBaseURL(url string) Option {
	return func(c *Client) {
		c.youtubeBaseURL = url
	}
}

// WithCacheTTL sets the cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given
// burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithMaxRetries sets the number of attempts per request.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithSharedCache adds a second-level cache consulted after the in-memory one.
func WithSharedCache(sc SharedCache) Option {
	return func(c *Client) {
		c.shared = sc
	}
}

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:         strings.TrimSpace(apiKey),
		baseURL:        defaultBaseURL,
		youtubeBaseURL: defaultYouTubeBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:      rate.NewLimiter(rate.Inf, 0),
		maxRetries:   defaultMaxRetries,
		backoff:      defaultBackoff,
		maxRetryWait: defaultMaxRetryWait,
		cacheTTL:     defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With("component", "tmdb")
	c.movies = newCache[int64, *Movie](c.cacheTTL)
	c.trailers = newCache[int64, string](c.cacheTTL)
	c.languages = newCache[string, []Language](c.cacheTTL)
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// GetMovie fetches movie metadata by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	if movie, ok := c.movies.get(tmdbID); ok {
		return movie, nil
	}

	key := "movie:" + strconv.FormatInt(tmdbID, 10)
	var movie Movie
	if c.sharedGet(ctx, key, &movie) {
		c.movies.set(tmdbID, &movie)
		return &movie, nil
	}

	if err := c.getJSON(ctx, "movie", fmt.Sprintf("/3/movie/%d", tmdbID), nil, &movie); err != nil {
		return nil, err
	}

	c.movies.set(tmdbID, &movie)
	c.sharedSet(ctx, key, &movie)
	return &movie, nil
}

// Trailer returns the watch URL of the movie's YouTube trailer. Official
// trailers win over unofficial ones; otherwise the first listed is used.
func (c *Client) Trailer(ctx context.Context, tmdbID int64) (string, error) {
	if u, ok := c.trailers.get(tmdbID); ok {
		return u, nil
	}

	var resp videosResponse
	if err := c.getJSON(ctx, "videos", fmt.Sprintf("/3/movie/%d/videos", tmdbID), nil, &resp); err != nil {
		return "", err
	}

	var trailers []Video
	for _, v := range resp.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" && v.Key != "" {
			trailers = append(trailers, v)
		}
	}
	if len(trailers) == 0 {
		return "", fmt.Errorf("movie %d: %w", tmdbID, ErrNoTrailer)
	}
	best := trailers[0]
	if i := slices.IndexFunc(trailers, func(v Video) bool { return v.Official }); i >= 0 {
		best = trailers[i]
	}

	u := c.youtubeBaseURL + url.QueryEscape(best.Key)
	c.trailers.set(tmdbID, u)
	return u, nil
}

// Languages returns the language catalog sorted by English name.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	const key = "languages"
	if langs, ok := c.languages.get(key); ok {
		return slices.Clone(langs), nil
	}

	var langs []Language
	if !c.sharedGet(ctx, key, &langs) {
		if err := c.getJSON(ctx, "languages", "/3/configuration/languages", nil, &langs); err != nil {
			return nil, err
		}
		slices.SortFunc(langs, func(a, b Language) int {
			return strings.Compare(a.Label(), b.Label())
		})
		c.sharedSet(ctx, key, langs)
	}

	c.languages.set(key, langs)
	return slices.Clone(langs), nil
}

// getJSON performs GET path and decodes the body into out, retrying as
// described on Client.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	q := url.Values{}
	for k, vs := range query {
		q[k] = slices.Clone(vs)
	}
	q.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + q.Encode()

	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", endpoint, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		wait := backoff
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%s: %w", endpoint, ctx.Err())
			}
			metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			lastErr = fmt.Errorf("execute request: %w", err)
			backoff *= 2
		} else {
			metrics.TMDBRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
			switch {
			case resp.StatusCode == http.StatusOK:
				err := json.NewDecoder(resp.Body).Decode(out)
				_ = resp.Body.Close()
				if err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
				return nil
			case resp.StatusCode == http.StatusNotFound:
				_ = resp.Body.Close()
				return ErrNotFound
			case resp.StatusCode == http.StatusTooManyRequests:
				wait = retryAfter(resp.Header.Get("Retry-After"), backoff, c.maxRetryWait)
				_ = resp.Body.Close()
				lastErr = ErrRateLimited
			case resp.StatusCode >= 500:
				_ = resp.Body.Close()
				lastErr = fmt.Errorf("TMDB API error: %s", resp.Status)
				backoff *= 2
			default:
				_ = resp.Body.Close()
				return fmt.Errorf("TMDB API error: %s", resp.Status)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		c.log.Warn("request failed, retrying", "endpoint", endpoint, "attempt", attempt, "wait", wait, "error", lastErr)
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("%s: %w", endpoint, err)
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", endpoint, c.maxRetries, lastErr)
}

func (c *Client) sharedGet(ctx context.Context, key string, out any) bool {
	if c.shared == nil {
		return false
	}
	data, ok, err := c.shared.Get(ctx, key)
	if err != nil {
		c.log.Debug("shared cache get failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (c *Client) sharedSet(ctx context.Context, key string, value any) {
	if c.shared == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.shared.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.log.Debug("shared cache set failed", "key", key, "error", err)
	}
}

// retryAfter parses a Retry-After header given in seconds, capped at limit.
func retryAfter(header string, fallback, limit time.Duration) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(header), 64)
	if err != nil || secs < 0 {
		return fallback
	}
	if secs >= limit.Seconds() {
		return limit
	}
	return time.Duration(secs * float64(time.Second))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
