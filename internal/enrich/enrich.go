// Package enrich fills in artwork and titles the backend left blank,
// using the metadata service.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/internal/tmdb"
)

const (
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultFallback     = "https://dummyimage.com/500x750/1f2937/9ca3af&text=No+Poster"
	DefaultBatchSize    = 6
)

// Source looks up movie details.
type Source interface {
	Enabled() bool
	GetMovie(ctx context.Context, tmdbID int64) (*tmdb.Movie, error)
}

// Config holds enrichment settings.
type Config struct {
	ImageBaseURL string
	FallbackURL  string
	BatchSize    int // lookups in flight at once
}

// Enricher backfills missing fields on movie summaries.
type Enricher struct {
	src    Source
	config Config
	log    *slog.Logger
}

// New creates an enricher. src may be nil, in which case only poster URLs
// are resolved.
func New(src Source, cfg Config, log *slog.Logger) *Enricher {
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = DefaultFallback
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{src: src, config: cfg, log: log.With("component", "enrich")}
}

// Backfill returns a copy of movies with missing title, poster and backdrop
// fields filled from the metadata service and every poster resolved to an
// absolute URL. Lookup failures are logged and leave the summary as is.
// Only cancellation of ctx is returned as an error.
func (e *Enricher) Backfill(ctx context.Context, movies []movie.Movie) ([]movie.Movie, error) {
	out := movie.Clone(movies)
	if out == nil {
		return []movie.Movie{}, nil
	}

	if e.src != nil && e.src.Enabled() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.config.BatchSize)
		for i := range out {
			if !needsLookup(&out[i]) {
				continue
			}
			g.Go(func() error {
				detail, err := e.src.GetMovie(gctx, out[i].ID)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					if !errors.Is(err, tmdb.ErrNotFound) {
						e.log.Warn("metadata lookup failed", "movie_id", out[i].ID, "error", err)
					}
					return nil
				}
				merge(&out[i], detail)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for i := range out {
		out[i].PosterURL = e.posterURL(&out[i])
	}
	return out, nil
}

func needsLookup(m *movie.Movie) bool {
	return m.Title == "" || m.Poster() == "" || m.BackdropPath == ""
}

func merge(m *movie.Movie, d *tmdb.Movie) {
	if m.Title == "" {
		m.Title = d.Title
	}
	if m.Poster() == "" {
		m.PosterPath = d.PosterPath
	}
	if m.BackdropPath == "" {
		m.BackdropPath = d.BackdropPath
	}
	if m.ReleaseDate == "" {
		m.ReleaseDate = d.ReleaseDate
	}
	if m.Overview == "" {
		m.Overview = d.Overview
	}
	if m.VoteAverage == 0 {
		m.VoteAverage = d.VoteAverage
	}
	if len(m.Genres) == 0 {
		for _, g := range d.Genres {
			m.Genres = append(m.Genres, movie.Genre{ID: g.ID, Name: g.Name})
		}
	}
}

// posterURL resolves the movie's poster reference to an absolute URL.
func (e *Enricher) posterURL(m *movie.Movie) string {
	p := m.Poster()
	switch {
	case p == "":
		return e.config.FallbackURL
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"):
		return p
	default:
		return strings.TrimRight(e.config.ImageBaseURL, "/") + "/" + strings.TrimLeft(p, "/")
	}
}
