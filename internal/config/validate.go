package config

import (
	"fmt"
	"net/url"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"pretty": true, "text": true, "json": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url: required")
	} else if !validHTTPURL(c.Backend.BaseURL) {
		errs = append(errs, fmt.Sprintf("backend.base_url: must be an http(s) URL, got %q", c.Backend.BaseURL))
	}
	errs = appendNegativeDuration(errs, "backend.timeout", c.Backend.Timeout)

	if c.TMDB.BaseURL != "" && !validHTTPURL(c.TMDB.BaseURL) {
		errs = append(errs, fmt.Sprintf("tmdb.base_url: must be an http(s) URL, got %q", c.TMDB.BaseURL))
	}
	if c.TMDB.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("tmdb.max_retries: must not be negative, got %d", c.TMDB.MaxRetries))
	}
	if c.TMDB.BatchSize < 0 {
		errs = append(errs, fmt.Sprintf("tmdb.batch_size: must not be negative, got %d", c.TMDB.BatchSize))
	}
	if c.TMDB.MaxPerHost < 0 {
		errs = append(errs, fmt.Sprintf("tmdb.max_per_host: must not be negative, got %d", c.TMDB.MaxPerHost))
	}
	if c.TMDB.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("tmdb.rate_limit: must not be negative, got %g", c.TMDB.RateLimit))
	}
	errs = appendNegativeDuration(errs, "tmdb.timeout", c.TMDB.Timeout)
	errs = appendNegativeDuration(errs, "tmdb.cache_ttl", c.TMDB.CacheTTL)

	errs = appendNegativeDuration(errs, "cache.ttl", c.Cache.TTL)

	errs = appendNegativeDuration(errs, "session.suggestion_delay", c.Session.SuggestionDelay)
	errs = appendNegativeDuration(errs, "session.refresh_delay", c.Session.RefreshDelay)
	for name, n := range map[string]int{
		"session.suggestion_limit":     c.Session.SuggestionLimit,
		"session.search_limit":         c.Session.SearchLimit,
		"session.recommendation_limit": c.Session.RecommendationLimit,
	} {
		if n < 0 {
			errs = append(errs, fmt.Sprintf("%s: must not be negative, got %d", name, n))
		}
	}

	if c.Redis != nil && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr: required when redis is configured")
	}

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format: must be one of pretty, text, json; got %q", c.Log.Format))
	}

	return errs
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func appendNegativeDuration(errs []string, name string, d time.Duration) []string {
	if d < 0 {
		return append(errs, fmt.Sprintf("%s: must not be negative, got %s", name, d))
	}
	return errs
}
