// Package reqcache memoizes query results per channel with lazy TTL expiry.
package reqcache

import (
	"sync"
	"time"

	"github.com/vmunix/marquee/internal/channel"
	"github.com/vmunix/marquee/internal/metrics"
	"github.com/vmunix/marquee/internal/movie"
)

const DefaultTTL = 30 * time.Second

type entry struct {
	movies   []movie.Movie
	storedAt time.Time
}

// Cache holds one key space per channel. Entries are never evicted; an
// expired entry is simply treated as absent.
type Cache struct {
	mu      sync.RWMutex
	entries map[channel.Name]map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache. A non-positive ttl selects DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[channel.Name]map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Lookup returns a copy of the cached value if it is younger than the TTL.
func (c *Cache) Lookup(ch channel.Name, key string) ([]movie.Movie, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[ch][key]
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues(string(ch), "miss").Inc()
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		metrics.CacheLookupsTotal.WithLabelValues(string(ch), "expired").Inc()
		return nil, false
	}
	metrics.CacheLookupsTotal.WithLabelValues(string(ch), "hit").Inc()
	return movie.Clone(e.movies), true
}

// Store records value under key, replacing any previous entry.
func (c *Cache) Store(ch channel.Name, key string, value []movie.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.entries[ch]
	if !ok {
		m = make(map[string]entry)
		c.entries[ch] = m
	}
	stored := movie.Clone(value)
	if stored == nil {
		stored = []movie.Movie{}
	}
	m[key] = entry{movies: stored, storedAt: c.now()}
}

// Len returns the number of entries, expired or not, held for ch.
func (c *Cache) Len(ch channel.Name) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[ch])
}
