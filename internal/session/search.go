package session

import (
	"context"
	"strings"

	"github.com/vmunix/marquee/internal/channel"
	"github.com/vmunix/marquee/internal/events"
	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/internal/profile"
	"github.com/vmunix/marquee/internal/reqcache"
)

// Search runs a full search for query and, when it finds anything, fetches
// recommendations seeded by the top result.
//
// Blank queries do nothing. A search replaces any earlier search and
// cancels any recommendation fetch in flight. The top result is recorded
// in the history. An empty result list is shown as such and hides the
// recommendations. If a newer search supersedes this one before its
// results are applied, nothing is written to the history, the cache or
// the view, and ErrSuperseded is returned.
func (s *Session) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	tok := s.coord.Begin(ctx, channel.Search)
	defer s.coord.Release(tok)
	s.coord.Cancel(channel.Recommendations)

	p := s.profiles.Get()
	key := reqcache.Key{Query: query, Languages: p.Language, SafeMode: p.SafeMode}.String()

	results, fromCache := s.cache.Lookup(channel.Search, key)
	if !fromCache {
		var err error
		results, err = timed(channel.Search, func() ([]movie.Movie, error) {
			return s.backend.Search(tok.Context(), query, filter(p, s.cfg.SearchLimit))
		})
		if err == nil {
			results, err = s.enrich(tok.Context(), results)
		}
		if err != nil {
			return s.failed(tok, err, func(v View) {
				v.Notice("Search failed. Please try again.")
			})
		}
	}
	results = movie.SafeFilter(results, p.SafeMode)

	var recorded bool
	ok := s.coord.Apply(tok, func() {
		if !fromCache {
			s.cache.Store(channel.Search, key, results)
		}
		if len(results) == 0 {
			s.render(func(v View) {
				v.ShowResults(query, results)
				v.HideRecommendations()
			})
			return
		}
		// Recorded under the coordinator so history order follows apply order.
		if err := s.profiles.RecordHistory(context.WithoutCancel(tok.Context()), results[0].ID); err != nil {
			s.log.Warn("record history failed", "movie_id", results[0].ID, "error", err)
		} else {
			recorded = true
		}
		s.render(func(v View) { v.ShowResults(query, results) })
	})
	if !ok {
		if cause := abandoned(tok); cause != nil {
			return cause
		}
		return ErrSuperseded
	}
	applied(channel.Search, len(results))

	var top movie.Movie
	if len(results) > 0 {
		top = results[0]
	}
	if recorded {
		s.publish(events.NewProfileChanged(string(profile.ChangeHistory), top.ID, ""))
	}
	s.publish(events.NewSearchCompleted(query, len(results), top.ID, top.Title, fromCache))
	s.log.Debug("search applied", "query", query, "seq", tok.Seq(), "results", len(results), "cached", fromCache)

	if len(results) == 0 {
		return nil
	}
	s.similar(ctx, tok, top, p)
	return nil
}

// similar fetches and shows recommendations seeded by top, as long as the
// search that produced top is still current. Failures are reported through
// the view only; they never affect the search results.
func (s *Session) similar(ctx context.Context, search *channel.Token, top movie.Movie, p profile.Profile) {
	tok, ok := s.coord.Chain(ctx, search, channel.Recommendations)
	if !ok {
		return
	}
	defer s.coord.Release(tok)

	key := reqcache.Key{MovieID: top.ID, Languages: p.Language, SafeMode: p.SafeMode}.String()
	recs, fromCache := s.cache.Lookup(channel.Recommendations, key)
	if !fromCache {
		var err error
		recs, err = timed(channel.Recommendations, func() ([]movie.Movie, error) {
			return s.backend.Recommendations(tok.Context(), top.ID, filter(p, s.cfg.RecommendationLimit))
		})
		if err == nil {
			recs, err = s.enrich(tok.Context(), recs)
		}
		if err != nil {
			_ = s.failed(tok, err, func(v View) { v.ShowRecommendationsError(err) })
			return
		}
	}
	recs = movie.SafeFilter(recs, p.SafeMode)

	ok = s.coord.Apply(tok, func() {
		if !fromCache {
			s.cache.Store(channel.Recommendations, key, recs)
		}
		s.render(func(v View) { v.ShowRecommendations(recs) })
	})
	if !ok {
		_ = abandoned(tok)
		return
	}
	applied(channel.Recommendations, len(recs))
	s.publish(events.NewRecommendationsApplied(events.SourceSimilar, top.ID, len(recs), fromCache))
}
