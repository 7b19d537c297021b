package session

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/vmunix/marquee/internal/channel"
	"github.com/vmunix/marquee/internal/metrics"
	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/internal/reqcache"
	"github.com/vmunix/marquee/internal/suggest"
)

// OnInput handles one edit of the search box.
//
// Empty input clears the suggestions and cancels any pending or in-flight
// suggestion query. Inputs of up to suggest.MaxLocalInput runes are first
// matched against the built-in title list; a local hit is shown at once
// and nothing goes to the network. Otherwise, except for a single
// unmatched character, a backend query is scheduled once input has been
// quiet for the suggestion delay.
func (s *Session) OnInput(text string) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)

	s.mu.Lock()
	s.input = text
	s.mu.Unlock()

	if n == 0 {
		s.stopSuggestions()
		s.setSuggestions(nil)
		return
	}

	if n <= suggest.MaxLocalInput {
		if local := suggest.Local(text); len(local) > 0 {
			s.stopSuggestions()
			s.setSuggestions(local)
			return
		}
		if n == 1 {
			s.stopSuggestions()
			s.setSuggestions(nil)
			return
		}
	}

	s.suggestDebounce.Trigger(func() {
		_ = s.fetchSuggestions(s.ctx, text)
	})
}

// stopSuggestions drops the pending debounce and the in-flight query.
func (s *Session) stopSuggestions() {
	s.suggestDebounce.Cancel()
	s.coord.Cancel(channel.Suggestions)
}

func (s *Session) fetchSuggestions(ctx context.Context, text string) error {
	p := s.profiles.Get()
	key := reqcache.Key{Query: text, Languages: p.Language, SafeMode: p.SafeMode}.String()

	tok := s.coord.Begin(ctx, channel.Suggestions)
	defer s.coord.Release(tok)

	results, fromCache := s.cache.Lookup(channel.Suggestions, key)
	if !fromCache {
		var err error
		results, err = timed(channel.Suggestions, func() ([]movie.Movie, error) {
			return s.backend.Search(tok.Context(), text, filter(p, s.cfg.SuggestionLimit))
		})
		if err != nil {
			return s.failed(tok, err, func(v View) {
				v.Notice("Suggestions are unavailable right now.")
			})
		}
		results = movie.Limit(results, s.cfg.SuggestionLimit)
	}

	var stale bool
	ok := s.coord.Apply(tok, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// The timer may have fired just before a keystroke that was
		// answered locally.
		if s.input != text {
			stale = true
			return
		}
		if !fromCache {
			s.cache.Store(channel.Suggestions, key, results)
		}
		s.setSuggestionsLocked(results)
	})
	if !ok {
		if cause := abandoned(tok); cause != nil {
			return cause
		}
		return ErrSuperseded
	}
	if stale {
		metrics.RequestsTotal.WithLabelValues(string(channel.Suggestions), "superseded").Inc()
		return ErrSuperseded
	}
	applied(channel.Suggestions, len(results))
	return nil
}

func (s *Session) setSuggestions(items []movie.Movie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSuggestionsLocked(items)
}

func (s *Session) setSuggestionsLocked(items []movie.Movie) {
	s.suggestions = movie.Clone(items)
	s.selected = -1
	s.view.ShowSuggestions(movie.Clone(items), -1)
}

// Suggestions returns the current suggestion list and selection.
func (s *Session) Suggestions() ([]movie.Movie, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return movie.Clone(s.suggestions), s.selected
}

// MoveSelection moves the highlighted suggestion by delta, clamped to
// [-1, len-1], where -1 means none.
func (s *Session) MoveSelection(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := min(max(s.selected+delta, -1), len(s.suggestions)-1)
	if sel == s.selected {
		return sel
	}
	s.selected = sel
	s.view.ShowSuggestions(movie.Clone(s.suggestions), sel)
	return sel
}

// SelectSuggestion searches for the i-th suggestion's title and clears the
// suggestion list.
func (s *Session) SelectSuggestion(ctx context.Context, i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.suggestions) {
		s.mu.Unlock()
		return ErrNoSuggestion
	}
	title := s.suggestions[i].Title
	s.input = title
	s.mu.Unlock()

	s.stopSuggestions()
	s.setSuggestions(nil)
	return s.Search(ctx, title)
}

// ConfirmSelection searches for the highlighted suggestion, or for the
// typed input when nothing is highlighted.
func (s *Session) ConfirmSelection(ctx context.Context) error {
	s.mu.Lock()
	sel, input := s.selected, s.input
	s.mu.Unlock()

	if sel >= 0 {
		return s.SelectSuggestion(ctx, sel)
	}
	s.stopSuggestions()
	s.setSuggestions(nil)
	return s.Search(ctx, input)
}
