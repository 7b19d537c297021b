// Package server runs the long-lived background components of a session:
// the metrics listener, the metadata cache pre-warm and storage pruning.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/marquee/internal/backend"
	"github.com/vmunix/marquee/internal/events"
	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/internal/storage"
)

const (
	DefaultPruneInterval  = time.Hour
	DefaultEventRetention = 30 * 24 * time.Hour
	DefaultPrewarmLimit   = 20
)

// Config for the background runner.
type Config struct {
	MetricsAddr    string // empty disables the listener
	PruneInterval  time.Duration
	EventRetention time.Duration
	PrewarmLimit   int
}

// TrendingSource lists currently popular movies.
type TrendingSource interface {
	Trending(ctx context.Context, f backend.Filter) ([]movie.Movie, error)
}

// Warmer looks up metadata for movies, filling its caches as a side effect.
type Warmer interface {
	Backfill(ctx context.Context, movies []movie.Movie) ([]movie.Movie, error)
}

// Runner manages the background components.
type Runner struct {
	db       *sql.DB
	config   Config
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	trending TrendingSource
	warmer   Warmer
	filter   backend.Filter

	// ready is closed once the metrics listener is bound (tests).
	ready chan net.Addr
}

// Option configures a Runner.
type Option func(*Runner)

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(r *Runner) {
		r.gatherer = g
	}
}

// WithPrewarm fetches trending movies with f at startup and passes them to w.
func WithPrewarm(src TrendingSource, w Warmer, f backend.Filter) Option {
	return func(r *Runner) {
		r.trending = src
		r.warmer = w
		r.filter = f
	}
}

// NewRunner creates a new runner.
func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = DefaultPruneInterval
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = DefaultEventRetention
	}
	if cfg.PrewarmLimit <= 0 {
		cfg.PrewarmLimit = DefaultPrewarmLimit
	}
	r := &Runner{
		db:       db,
		config:   cfg,
		logger:   logger.With("component", "runner"),
		gatherer: prometheus.DefaultGatherer,
		ready:    make(chan net.Addr, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts all background components.
// It blocks until the context is canceled or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if r.config.MetricsAddr != "" {
		ln, err := net.Listen("tcp", r.config.MetricsAddr)
		if err != nil {
			return err
		}
		r.ready <- ln.Addr()
		g.Go(func() error {
			return r.serveMetrics(ctx, ln)
		})
	}

	if r.trending != nil && r.warmer != nil {
		g.Go(func() error {
			r.prewarm(ctx)
			return nil
		})
	}

	g.Go(func() error {
		return r.pruneLoop(ctx)
	})

	return g.Wait()
}

func (r *Runner) serveMetrics(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	r.logger.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// prewarm loads metadata for trending movies. Failures only cost the
// warm cache, so they are logged.
func (r *Runner) prewarm(ctx context.Context) {
	f := r.filter
	f.Limit = r.config.PrewarmLimit

	start := time.Now()
	movies, err := r.trending.Trending(ctx, f)
	if err != nil {
		r.logger.Warn("prewarm: trending failed", "error", err)
		return
	}
	if _, err := r.warmer.Backfill(ctx, movies); err != nil {
		r.logger.Warn("prewarm: backfill failed", "error", err)
		return
	}
	r.logger.Info("prewarm complete", "movies", len(movies), "duration_ms", time.Since(start).Milliseconds())
}

func (r *Runner) pruneLoop(ctx context.Context) error {
	if r.db == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	eventLog := events.NewEventLog(r.db)
	metadata := storage.NewMetadataCache(r.db)

	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	r.prune(ctx, eventLog, metadata)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.prune(ctx, eventLog, metadata)
		}
	}
}

func (r *Runner) prune(ctx context.Context, eventLog *events.EventLog, metadata *storage.MetadataCache) {
	if n, err := eventLog.Prune(ctx, r.config.EventRetention); err != nil {
		r.logger.Warn("prune events failed", "error", err)
	} else if n > 0 {
		r.logger.Debug("pruned events", "count", n)
	}
	if n, err := metadata.Prune(ctx); err != nil {
		r.logger.Warn("prune metadata cache failed", "error", err)
	} else if n > 0 {
		r.logger.Debug("pruned metadata cache", "count", n)
	}
}
