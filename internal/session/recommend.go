package session

import (
	"context"

	"github.com/vmunix/marquee/internal/backend"
	"github.com/vmunix/marquee/internal/channel"
	"github.com/vmunix/marquee/internal/events"
	"github.com/vmunix/marquee/internal/movie"
)

// NotifyProfileChanged schedules a personalized recommendation refresh once
// profile changes have been quiet for the refresh delay.
func (s *Session) NotifyProfileChanged() {
	s.refreshDebounce.Trigger(func() {
		_ = s.refresh(s.ctx)
	})
}

// RefreshRecommendations runs the personalized refresh now, dropping any
// scheduled one.
func (s *Session) RefreshRecommendations(ctx context.Context) error {
	s.refreshDebounce.Cancel()
	return s.refresh(ctx)
}

// refresh replaces the recommendation set with one computed from the
// profile. If it is superseded the rendered set stays as it was; a genuine
// failure replaces it with an error state.
func (s *Session) refresh(ctx context.Context) error {
	tok := s.coord.Begin(ctx, channel.Recommendations)
	defer s.coord.Release(tok)

	p := s.profiles.Get()
	payload := backend.UserPayload{
		Mood:           string(p.Mood),
		Language:       p.Language,
		LikedMovies:    p.LikedMovies,
		DislikedMovies: p.DislikedMovies,
		Watchlist:      p.WatchlistIDs(),
		SafeMode:       p.SafeMode,
		Age:            p.Age,
	}

	recs, err := timed(channel.Recommendations, func() ([]movie.Movie, error) {
		return s.backend.ForUser(tok.Context(), payload)
	})
	if err == nil {
		recs, err = s.enrich(tok.Context(), recs)
	}
	if err != nil {
		return s.failed(tok, err, func(v View) { v.ShowRecommendationsError(err) })
	}
	recs = movie.Limit(movie.SafeFilter(recs, p.SafeMode), s.cfg.RecommendationLimit)

	ok := s.coord.Apply(tok, func() {
		s.render(func(v View) { v.ShowRecommendations(recs) })
	})
	if !ok {
		if cause := abandoned(tok); cause != nil {
			return cause
		}
		return ErrSuperseded
	}
	applied(channel.Recommendations, len(recs))
	s.publish(events.NewRecommendationsApplied(events.SourcePersonal, 0, len(recs), false))
	return nil
}

// Trending returns popular movies filtered by the profile.
func (s *Session) Trending(ctx context.Context, limit int) ([]movie.Movie, error) {
	p := s.profiles.Get()
	movies, err := s.backend.Trending(ctx, filter(p, limit))
	if err != nil {
		return nil, err
	}
	movies, err = s.enrich(ctx, movies)
	if err != nil {
		return nil, err
	}
	return movie.SafeFilter(movies, p.SafeMode), nil
}

// TopRated returns the highest rated movies filtered by the profile.
func (s *Session) TopRated(ctx context.Context, limit int) ([]movie.Movie, error) {
	p := s.profiles.Get()
	movies, err := s.backend.TopRated(ctx, filter(p, limit))
	if err != nil {
		return nil, err
	}
	movies, err = s.enrich(ctx, movies)
	if err != nil {
		return nil, err
	}
	return movie.SafeFilter(movies, p.SafeMode), nil
}
