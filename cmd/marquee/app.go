package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vmunix/marquee/internal/backend"
	"github.com/vmunix/marquee/internal/config"
	"github.com/vmunix/marquee/internal/enrich"
	"github.com/vmunix/marquee/internal/events"
	"github.com/vmunix/marquee/internal/logging"
	"github.com/vmunix/marquee/internal/metrics"
	"github.com/vmunix/marquee/internal/profile"
	"github.com/vmunix/marquee/internal/reqcache"
	"github.com/vmunix/marquee/internal/server"
	"github.com/vmunix/marquee/internal/session"
	"github.com/vmunix/marquee/internal/storage"
	"github.com/vmunix/marquee/internal/tmdb"
)

// app holds everything a command needs, wired from the config.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *sql.DB
	redis    *redis.Client
	profiles *profile.Store
	backend  *backend.Client
	tmdb     *tmdb.Client
	enricher *enrich.Enricher
	events   *events.EventLog
	bus      *events.Bus
	view     *terminalView
	session  *session.Session
}

// loadConfig returns the config and the path it came from. With no
// --config and nothing discovered it returns the defaults and an empty path.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		found, err := config.Discover()
		if errors.Is(err, config.ErrNotFound) {
			return config.Default(), "", nil
		}
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("config: %w", err)
	}
	return cfg, path, nil
}

func openApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		NoColor: os.Getenv("NO_COLOR") != "",
	})

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger, db: db}

	a.profiles, err = profile.Load(ctx, storage.NewSQLiteKV(db), profile.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.backend = backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger),
	)

	a.tmdb = tmdb.NewClient(cfg.TMDB.APIKey,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithYouTubeBaseURL(cfg.TMDB.YouTubeBaseURL),
		tmdb.WithHTTPClient(tmdbHTTPClient(cfg.TMDB)),
		tmdb.WithRateLimit(cfg.TMDB.RateLimit, cfg.TMDB.BatchSize),
		tmdb.WithMaxRetries(cfg.TMDB.MaxRetries),
		tmdb.WithCacheTTL(cfg.TMDB.CacheTTL),
		tmdb.WithSharedCache(a.sharedCache(ctx)),
		tmdb.WithLogger(logger),
	)

	a.enricher = enrich.New(a.tmdb, enrich.Config{
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		FallbackURL:  cfg.TMDB.FallbackPosterURL,
		BatchSize:    cfg.TMDB.BatchSize,
	}, logger)

	a.events = events.NewEventLog(db)
	a.bus = events.NewBus(a.events, logger.With("component", "bus"))

	a.view = newTerminalView(out, jsonOutput)
	a.session = session.New(session.Deps{
		Backend:  a.backend,
		Profiles: a.profiles,
		View:     a.view,
		Cache:    reqcache.New(cfg.Cache.TTL),
		Enricher: a.enricher,
		Bus:      a.bus,
		Logger:   logger,
	}, session.Config{
		SuggestionDelay:     cfg.Session.SuggestionDelay,
		RefreshDelay:        cfg.Session.RefreshDelay,
		SuggestionLimit:     cfg.Session.SuggestionLimit,
		SearchLimit:         cfg.Session.SearchLimit,
		RecommendationLimit: cfg.Session.RecommendationLimit,
	})
	return a, nil
}

// sharedCache prefers Redis when configured and reachable, and falls back
// to the SQLite metadata table.
func (a *app) sharedCache(ctx context.Context) tmdb.SharedCache {
	if r := a.cfg.Redis; r != nil {
		client, err := storage.NewRedis(ctx, r.Addr, r.Password, r.DB)
		if err == nil {
			a.redis = client
			return storage.NewRedisCache(client)
		}
		a.log.Warn("redis unavailable, using local metadata cache", "error", err)
	}
	return storage.NewMetadataCache(a.db)
}

func tmdbHTTPClient(cfg config.TMDBConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = cfg.MaxPerHost
	return &http.Client{Timeout: cfg.Timeout, Transport: transport}
}

// runner builds the background runner for long-lived commands.
func (a *app) runner() *server.Runner {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	p := a.profiles.Get()
	return server.NewRunner(a.db, server.Config{MetricsAddr: a.cfg.Metrics.Addr}, a.log,
		server.WithGatherer(reg),
		server.WithPrewarm(a.backend, a.enricher, backend.Filter{SafeMode: p.SafeMode, Languages: p.Language}),
	)
}

func (a *app) Close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
