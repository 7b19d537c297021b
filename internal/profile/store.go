package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/vmunix/marquee/internal/movie"
)

// StorageKey is the key the profile is persisted under.
const StorageKey = "user_profile"

// KV is the persistence port. Last write wins.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Rating is a user's opinion of a movie.
type Rating int

const (
	Neutral Rating = iota
	Like
	Dislike
)

func (r Rating) String() string {
	switch r {
	case Like:
		return "like"
	case Dislike:
		return "dislike"
	default:
		return "neutral"
	}
}

// Change names the kind of mutation that produced a save.
type Change string

const (
	ChangeWatchlist Change = "watchlist"
	ChangeRating    Change = "rating"
	ChangeMood      Change = "mood"
	ChangeLanguage  Change = "language"
	ChangeProfile   Change = "profile"
	ChangeHistory   Change = "history"
)

// AffectsRecommendations reports whether personalized recommendations
// depend on this kind of change.
func (c Change) AffectsRecommendations() bool {
	return c != ChangeHistory
}

// Store holds the in-memory profile and persists it after every mutation.
// A mutation whose save fails leaves the in-memory profile unchanged.
type Store struct {
	kv  KV
	log *slog.Logger
	now func() time.Time

	mu       sync.Mutex
	profile  Profile
	onChange func(Change, Profile)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithClock replaces time.Now (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Load reads the persisted profile and merges it over defaults. Fields
// absent from storage keep their default values. A missing profile is
// created and saved.
func Load(ctx context.Context, kv KV, opts ...Option) (*Store, error) {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "profile")

	p := Default()
	data, ok, err := kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if ok {
		if err := json.Unmarshal(data, &p); err != nil {
			// A corrupt blob must not lock the user out; start over.
			s.log.Warn("discarding unreadable profile", "error", err)
			p = Default()
		}
		p.repair()
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	s.profile = p
	s.log.Debug("profile loaded", "user_id", p.UserID, "existing", ok)
	return s, nil
}

// OnChange registers fn to run after every successful mutation. fn runs
// with a copy of the new profile, outside the store's lock.
func (s *Store) OnChange(fn func(Change, Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Get returns a copy of the current profile.
func (s *Store) Get() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// ToggleWatchlist adds m to the watchlist, or removes it if an entry with
// the same id is present. It reports whether m is now on the watchlist.
func (s *Store) ToggleWatchlist(ctx context.Context, m movie.Movie) (bool, error) {
	var added bool
	err := s.mutate(ctx, ChangeWatchlist, func(p *Profile) error {
		before := len(p.Watchlist)
		p.Watchlist = slices.DeleteFunc(p.Watchlist, func(w movie.Movie) bool { return w.ID == m.ID })
		if len(p.Watchlist) == before {
			p.Watchlist = append(p.Watchlist, movie.Clone([]movie.Movie{m})...)
			added = true
		}
		return nil
	})
	return added, err
}

// Rate toggles a like or dislike on id. Rating a movie with the rating it
// already has clears it; rating it the other way moves it across, so an id
// is never both liked and disliked. It returns the resulting rating.
func (s *Store) Rate(ctx context.Context, id int64, r Rating) (Rating, error) {
	if r != Like && r != Dislike {
		return Neutral, fmt.Errorf("rate %d: invalid rating %q", id, r)
	}
	var result Rating
	err := s.mutate(ctx, ChangeRating, func(p *Profile) error {
		target, other := &p.LikedMovies, &p.DislikedMovies
		if r == Dislike {
			target, other = other, target
		}
		if slices.Contains(*target, id) {
			*target = slices.DeleteFunc(*target, func(x int64) bool { return x == id })
			result = Neutral
			return nil
		}
		*other = slices.DeleteFunc(*other, func(x int64) bool { return x == id })
		*target = append(*target, id)
		result = r
		return nil
	})
	return result, err
}

// RecordHistory moves id to the front of the history, removing any earlier
// occurrence and keeping at most MaxHistory entries.
func (s *Store) RecordHistory(ctx context.Context, id int64) error {
	return s.mutate(ctx, ChangeHistory, func(p *Profile) error {
		h := make([]int64, 0, len(p.History)+1)
		h = append(h, id)
		for _, x := range p.History {
			if x != id {
				h = append(h, x)
			}
		}
		if len(h) > MaxHistory {
			h = h[:MaxHistory]
		}
		p.History = h
		return nil
	})
}

// SetMood changes the mood and stamps last_mood_update.
func (s *Store) SetMood(ctx context.Context, m Mood) error {
	if !m.Valid() {
		return fmt.Errorf("set mood %q: %w", m, ErrUnknownMood)
	}
	return s.mutate(ctx, ChangeMood, func(p *Profile) error {
		now := s.now()
		p.Mood = m
		p.LastMoodUpdate = &now
		return nil
	})
}

// SetLanguages replaces the language filter. Codes are lowercased and
// deduplicated; the result must not be empty.
func (s *Store) SetLanguages(ctx context.Context, langs []string) error {
	normalized := normalizeLanguages(langs)
	if len(normalized) == 0 {
		return ErrNoLanguages
	}
	return s.mutate(ctx, ChangeLanguage, func(p *Profile) error {
		p.Language = normalized
		return nil
	})
}

// Update applies a validated profile form. On a validation failure the
// returned error is a *ValidationError and nothing is saved.
func (s *Store) Update(ctx context.Context, f Form) error {
	return s.mutate(ctx, ChangeProfile, func(p *Profile) error {
		return f.apply(p)
	})
}

// mutate applies fn to a copy of the profile, saves the copy, and only then
// makes it current.
func (s *Store) mutate(ctx context.Context, change Change, fn func(*Profile) error) error {
	s.mu.Lock()
	next := s.profile.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.save(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.profile = next
	hook := s.onChange
	snapshot := next.Clone()
	s.mu.Unlock()

	s.log.Debug("profile changed", "change", change)
	if hook != nil {
		hook(change, snapshot)
	}
	return nil
}

func (s *Store) save(ctx context.Context, p Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
