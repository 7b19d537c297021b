// Package profile owns the persisted user profile: watchlist, history,
// ratings, mood and language preferences.
package profile

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/marquee/internal/movie"
)

// MaxHistory caps the history list.
const MaxHistory = 100

// Default values for a fresh profile.
const (
	DefaultName   = "Guest"
	DefaultAge    = 25
	DefaultMood   = MoodHappy
	DefaultRegion = "US"
)

// DefaultLanguages is the language filter of a fresh profile.
var DefaultLanguages = []string{"en"}

// Mood drives personalized recommendations.
type Mood string

const (
	MoodHappy       Mood = "happy"
	MoodExcited     Mood = "excited"
	MoodRelaxed     Mood = "relaxed"
	MoodAdventurous Mood = "adventurous"
	MoodRomantic    Mood = "romantic"
	MoodMysterious  Mood = "mysterious"
)

// Moods lists every mood in display order.
var Moods = []Mood{MoodHappy, MoodExcited, MoodRelaxed, MoodAdventurous, MoodRomantic, MoodMysterious}

// Valid reports whether m is a known mood.
func (m Mood) Valid() bool {
	return slices.Contains(Moods, m)
}

// ParseMood parses a mood name case-insensitively.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrUnknownMood
	}
	return m, nil
}

// Profile is the persisted user state. JSON field names are the storage
// format.
type Profile struct {
	UserID         string        `json:"user_id"`
	Name           string        `json:"name"`
	Age            int           `json:"age"`
	SafeMode       bool          `json:"safe_mode"`
	Language       []string      `json:"language"`
	Mood           Mood          `json:"mood"`
	Region         string        `json:"region"`
	Watchlist      []movie.Movie `json:"watchlist"`
	History        []int64       `json:"history"`
	LikedMovies    []int64       `json:"liked_movies"`
	DislikedMovies []int64       `json:"disliked_movies"`
	ProfilePic     string        `json:"profile_pic,omitempty"`
	LastMoodUpdate *time.Time    `json:"last_mood_update,omitempty"`
}

// Default returns a fresh profile with a new user id.
func Default() Profile {
	return Profile{
		UserID:         uuid.NewString(),
		Name:           DefaultName,
		Age:            DefaultAge,
		Language:       slices.Clone(DefaultLanguages),
		Mood:           DefaultMood,
		Region:         DefaultRegion,
		Watchlist:      []movie.Movie{},
		History:        []int64{},
		LikedMovies:    []int64{},
		DislikedMovies: []int64{},
	}
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	c := p
	c.Language = slices.Clone(p.Language)
	c.Watchlist = movie.Clone(p.Watchlist)
	c.History = slices.Clone(p.History)
	c.LikedMovies = slices.Clone(p.LikedMovies)
	c.DislikedMovies = slices.Clone(p.DislikedMovies)
	if p.LastMoodUpdate != nil {
		t := *p.LastMoodUpdate
		c.LastMoodUpdate = &t
	}
	return c
}

// InWatchlist reports whether id is on the watchlist.
func (p *Profile) InWatchlist(id int64) bool {
	return slices.ContainsFunc(p.Watchlist, func(m movie.Movie) bool { return m.ID == id })
}

// Rating returns the user's rating of id.
func (p *Profile) Rating(id int64) Rating {
	switch {
	case slices.Contains(p.LikedMovies, id):
		return Like
	case slices.Contains(p.DislikedMovies, id):
		return Dislike
	default:
		return Neutral
	}
}

// WatchlistIDs returns the ids of watchlist entries in order.
func (p *Profile) WatchlistIDs() []int64 {
	return movie.IDs(p.Watchlist)
}

// repair restores invariants on a profile loaded from storage.
func (p *Profile) repair() {
	if p.UserID == "" {
		p.UserID = uuid.NewString()
	}
	if !p.Mood.Valid() {
		p.Mood = DefaultMood
	}
	p.Language = normalizeLanguages(p.Language)
	if len(p.Language) == 0 {
		p.Language = slices.Clone(DefaultLanguages)
	}

	p.History = dedupe(p.History)
	if len(p.History) > MaxHistory {
		p.History = p.History[:MaxHistory]
	}

	seen := make(map[int64]bool, len(p.Watchlist))
	watchlist := make([]movie.Movie, 0, len(p.Watchlist))
	for _, m := range p.Watchlist {
		if !seen[m.ID] {
			seen[m.ID] = true
			watchlist = append(watchlist, m)
		}
	}
	p.Watchlist = watchlist

	p.LikedMovies = dedupe(p.LikedMovies)
	p.DislikedMovies = slices.DeleteFunc(dedupe(p.DislikedMovies), func(id int64) bool {
		return slices.Contains(p.LikedMovies, id)
	})
}

// dedupe keeps the first occurrence of each id and never returns nil.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func normalizeLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}
