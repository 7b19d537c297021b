package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-key", append([]Option{WithBaseURL(server.URL)}, opts...)...)
	c.backoff = time.Millisecond
	return c
}

// memShared is a SharedCache backed by a map.
type memShared struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memShared) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memShared) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestClient_GetMovie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/550", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		resp := Movie{
			ID:          550,
			Title:       "Fight Club",
			ReleaseDate: "1999-10-15",
			PosterPath:  "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
			VoteAverage: 8.4,
			Runtime:     139,
			Genres:      []Genre{{ID: 18, Name: "Drama"}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	movie, err := c.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int64(550), movie.ID)
	assert.Equal(t, "Fight Club", movie.Title)
	assert.Equal(t, 1999, movie.Year())
	assert.Equal(t, 139, movie.Runtime)
	assert.True(t, c.Enabled())
}

func TestClient_GetMovie_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	})

	movie, err := c.GetMovie(context.Background(), 99999999)
	assert.Nil(t, movie)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_GetMovie_Cached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(Movie{ID: 550, Title: "Fight Club"})
	}, WithCacheTTL(time.Hour))

	_, err := c.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	_, err = c.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "should use cache, not call API again")
}

func TestClient_GetMovie_SharedCache(t *testing.T) {
	shared := &memShared{data: map[string][]byte{}}

	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(Movie{ID: 603, Title: "The Matrix"})
	}

	first := newTestClient(t, handler, WithSharedCache(shared))
	_, err := first.GetMovie(context.Background(), 603)
	require.NoError(t, err)
	assert.Contains(t, shared.data, "movie:603")

	// A second process with a cold memory cache reads through the shared one.
	second := newTestClient(t, handler, WithSharedCache(shared))
	m, err := second.GetMovie(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", m.Title)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(Movie{ID: 1, Title: "Finally"})
	})

	m, err := c.GetMovie(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Finally", m.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}, WithMaxRetries(2))

	_, err := c.GetMovie(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetMovie(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Trailer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/movie/603/videos":
			_, _ = w.Write([]byte(`{"id":603,"results":[
				{"key":"teaser1","site":"YouTube","type":"Teaser"},
				{"key":"fan","site":"YouTube","type":"Trailer","official":false},
				{"key":"vimeo","site":"Vimeo","type":"Trailer","official":true},
				{"key":"vKQi3bBA1y8","site":"YouTube","type":"Trailer","official":true}
			]}`))
		case "/3/movie/1/videos":
			_, _ = w.Write([]byte(`{"id":1,"results":[{"key":"clip","site":"YouTube","type":"Clip"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	u, err := c.Trailer(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=vKQi3bBA1y8", u)

	_, err = c.Trailer(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoTrailer)

	_, err = c.Trailer(context.Background(), 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Languages(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/3/configuration/languages", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"iso_639_1":"fr","english_name":"French","name":"Français"},
			{"iso_639_1":"xx","english_name":"","name":""},
			{"iso_639_1":"en","english_name":"English","name":"English"}
		]`))
	})

	langs, err := c.Languages(context.Background())
	require.NoError(t, err)
	require.Len(t, langs, 3)
	assert.Equal(t, "en", langs[0].Code)
	assert.Equal(t, "fr", langs[1].Code)
	assert.Equal(t, "xx", langs[2].Label())

	langs[0].Code = "changed"
	again, err := c.Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "en", again[0].Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Movie{ID: 1})
	}, WithRateLimit(20, 1))

	start := time.Now()
	for id := int64(1); id <= 3; id++ {
		_, err := c.GetMovie(context.Background(), id)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "burst of 1 at 20/s spaces requests 50ms apart")
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.GetMovie(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRetryAfter(t *testing.T) {
	const limit = 30 * time.Second
	assert.Equal(t, 2*time.Second, retryAfter("2", time.Second, limit))
	assert.Equal(t, 1500*time.Millisecond, retryAfter("1.5", time.Second, limit))
	assert.Equal(t, time.Second, retryAfter("", time.Second, limit))
	assert.Equal(t, time.Second, retryAfter("Wed, 21 Oct 2015 07:28:00 GMT", time.Second, limit))
	assert.Equal(t, limit, retryAfter("3600", time.Second, limit))
	assert.Equal(t, limit, retryAfter("1e300", time.Second, limit))
}

func TestClient_RetryAfterCapped(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3600")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(Movie{ID: 1, Title: "Heat"})
	})
	c.maxRetryWait = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m, err := c.GetMovie(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Heat", m.Title)
	assert.Equal(t, int32(2), calls.Load())
}
