// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvFile is the dotenv file read from the config file's directory before
// substitution. Variables already set in the environment win.
const EnvFile = "config.env"

// Config is the root configuration structure.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	TMDB    TMDBConfig    `toml:"tmdb"`
	Cache   CacheConfig   `toml:"cache"`
	Session SessionConfig `toml:"session"`
	Storage StorageConfig `toml:"storage"`
	Redis   *RedisConfig  `toml:"redis"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

type BackendConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

type TMDBConfig struct {
	APIKey            string        `toml:"api_key"`
	BaseURL           string        `toml:"base_url"`
	ImageBaseURL      string        `toml:"image_base_url"`
	FallbackPosterURL string        `toml:"fallback_poster_url"`
	YouTubeBaseURL    string        `toml:"youtube_base_url"`
	Timeout           time.Duration `toml:"timeout"`
	MaxRetries        int           `toml:"max_retries"`
	BatchSize         int           `toml:"batch_size"`
	MaxPerHost        int           `toml:"max_per_host"`
	RateLimit         float64       `toml:"rate_limit"` // requests per second, 0 = unlimited
	CacheTTL          time.Duration `toml:"cache_ttl"`
}

type CacheConfig struct {
	TTL time.Duration `toml:"ttl"`
}

type SessionConfig struct {
	SuggestionDelay     time.Duration `toml:"suggestion_delay"`
	RefreshDelay        time.Duration `toml:"refresh_delay"`
	SuggestionLimit     int           `toml:"suggestion_limit"`
	SearchLimit         int           `toml:"search_limit"`
	RecommendationLimit int           `toml:"recommendation_limit"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // pretty, text or json
}

type MetricsConfig struct {
	Addr string `toml:"addr"` // empty disables the listener
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, leaving
// unresolved variables in place and skipping validation.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(path), EnvFile)
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", envPath, err)
		}
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, missing, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 20 * time.Second
	}

	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = "https://api.themoviedb.org"
	}
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	}
	if c.TMDB.YouTubeBaseURL == "" {
		c.TMDB.YouTubeBaseURL = "https://www.youtube.com/watch?v="
	}
	if c.TMDB.Timeout == 0 {
		c.TMDB.Timeout = 10 * time.Second
	}
	if c.TMDB.MaxRetries == 0 {
		c.TMDB.MaxRetries = 3
	}
	if c.TMDB.BatchSize == 0 {
		c.TMDB.BatchSize = 6
	}
	if c.TMDB.MaxPerHost == 0 {
		c.TMDB.MaxPerHost = 10
	}
	if c.TMDB.CacheTTL == 0 {
		c.TMDB.CacheTTL = 24 * time.Hour
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Second
	}

	if c.Session.SuggestionDelay == 0 {
		c.Session.SuggestionDelay = 150 * time.Millisecond
	}
	if c.Session.RefreshDelay == 0 {
		c.Session.RefreshDelay = 400 * time.Millisecond
	}
	if c.Session.SuggestionLimit == 0 {
		c.Session.SuggestionLimit = 6
	}
	if c.Session.SearchLimit == 0 {
		c.Session.SearchLimit = 12
	}
	if c.Session.RecommendationLimit == 0 {
		c.Session.RecommendationLimit = 10
	}

	if c.Storage.Path == "" {
		c.Storage.Path = "./data/marquee.db"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "pretty"
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// substituteEnvVars expands variable references. Unresolved references are
// left as written and reported in missing; a ${VAR:?message} reference
// reports "VAR: message".
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case "-":
			if value == "" {
				return arg
			}
			return value
		case "?":
			if value == "" {
				missing = append(missing, name+": "+strings.TrimSpace(arg))
				return match
			}
			return value
		}

		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
