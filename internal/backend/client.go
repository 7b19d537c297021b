// Package backend is the HTTP client for the movie discovery backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/marquee/internal/movie"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	defaultTimeout = 20 * time.Second
)

// Client calls the backend's search and recommendation endpoints.
// Every call honors ctx; cancelling it aborts the transfer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With("component", "backend")
	return c
}

// Filter carries the result filters every listing endpoint accepts.
type Filter struct {
	SafeMode  bool
	Languages []string
	Limit     int // 0 leaves the backend default
}

func (f Filter) values() url.Values {
	v := url.Values{}
	v.Set("safe_mode", strconv.FormatBool(f.SafeMode))
	if len(f.Languages) > 0 {
		v.Set("languages", strings.Join(f.Languages, ","))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// UserPayload is the body of a personalized recommendation request.
type UserPayload struct {
	Mood           string   `json:"mood"`
	Language       []string `json:"language"`
	LikedMovies    []int64  `json:"liked_movies"`
	DislikedMovies []int64  `json:"disliked_movies"`
	Watchlist      []int64  `json:"watchlist"`
	SafeMode       bool     `json:"safe_mode"`
	Age            int      `json:"age"`
}

// Search returns movies whose titles match query.
func (c *Client) Search(ctx context.Context, query string, f Filter) ([]movie.Movie, error) {
	v := f.values()
	v.Set("query", query)
	return c.get(ctx, "/search", v)
}

// Recommendations returns movies similar to movieID. An unknown movie is
// reported by the backend as 404 and returned here as an empty list.
func (c *Client) Recommendations(ctx context.Context, movieID int64, f Filter) ([]movie.Movie, error) {
	v := f.values()
	v.Set("movie_id", strconv.FormatInt(movieID, 10))
	movies, err := c.get(ctx, "/recommendations", v)
	if IsNotFound(err) {
		c.log.Debug("recommendation seed unknown", "movie_id", movieID)
		return []movie.Movie{}, nil
	}
	return movies, err
}

// ForUser returns personalized recommendations.
func (c *Client) ForUser(ctx context.Context, p UserPayload) ([]movie.Movie, error) {
	return c.post(ctx, "/recommendations/user", p)
}

// Trending returns currently popular movies.
func (c *Client) Trending(ctx context.Context, f Filter) ([]movie.Movie, error) {
	return c.get(ctx, "/trending", f.values())
}

// TopRated returns the highest rated movies.
func (c *Client) TopRated(ctx context.Context, f Filter) ([]movie.Movie, error) {
	return c.get(ctx, "/top-rated", f.values())
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]movie.Movie, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req, path)
}

func (c *Client) post(ctx context.Context, path string, body any) ([]movie.Movie, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) ([]movie.Movie, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, newStatusError(req.Method, path, resp.StatusCode, body)
	}

	var movies []movie.Movie
	if err := json.NewDecoder(resp.Body).Decode(&movies); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", req.Method, path, ErrUnexpectedResponse, err)
	}
	if movies == nil {
		movies = []movie.Movie{}
	}
	c.log.Debug("backend request", "method", req.Method, "path", path,
		"results", len(movies), "duration", time.Since(start))
	return movies, nil
}
