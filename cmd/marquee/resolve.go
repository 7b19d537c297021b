package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vmunix/marquee/internal/backend"
	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/pkg/title"
)

var errMovieRequired = errors.New("movie title or id required")

// movieSearcher is the part of the backend used to resolve titles.
type movieSearcher interface {
	Search(ctx context.Context, query string, f backend.Filter) ([]movie.Movie, error)
}

// movieBackfiller fills in details for a bare id.
type movieBackfiller interface {
	Backfill(ctx context.Context, movies []movie.Movie) ([]movie.Movie, error)
}

// resolver turns a command argument into a movie. A number is a TMDB id;
// anything else is a title, matched against the watchlist first and then
// against backend search results.
type resolver struct {
	watchlist []movie.Movie
	filter    backend.Filter
	search    movieSearcher
	details   movieBackfiller // optional
}

func (a *app) resolver() *resolver {
	p := a.profiles.Get()
	return &resolver{
		watchlist: p.Watchlist,
		filter:    backend.Filter{SafeMode: p.SafeMode, Languages: p.Language, Limit: 10},
		search:    a.backend,
		details:   a.enricher,
	}
}

func (r *resolver) resolve(ctx context.Context, arg string) (movie.Movie, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return movie.Movie{}, errMovieRequired
	}

	if id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64); err == nil && id > 0 {
		for _, m := range r.watchlist {
			if m.ID == id {
				return m, nil
			}
		}
		m := movie.Movie{ID: id}
		if r.details != nil {
			filled, err := r.details.Backfill(ctx, []movie.Movie{m})
			if err != nil {
				return movie.Movie{}, err
			}
			m = filled[0]
		}
		return m, nil
	}

	if m, ok := bestMatch(arg, r.watchlist, title.ConfidenceMedium); ok {
		return m, nil
	}

	results, err := r.search.Search(ctx, arg, r.filter)
	if err != nil {
		return movie.Movie{}, fmt.Errorf("search %q: %w", arg, err)
	}
	if m, ok := bestMatch(arg, results, title.ConfidenceLow); ok {
		return m, nil
	}
	return movie.Movie{}, fmt.Errorf("no movie matching %q", arg)
}

// bestMatch returns the movie whose title best matches query, if the match
// is at least minConf.
func bestMatch(query string, movies []movie.Movie, minConf title.Confidence) (movie.Movie, bool) {
	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = m.Title
	}
	best := title.Best(query, titles)
	if best.Index < 0 || best.Confidence < minConf {
		return movie.Movie{}, false
	}
	return movies[best.Index], true
}
