package events

import "fmt"

const (
	EventProfileChanged         = "profile.changed"
	EventSearchCompleted        = "search.completed"
	EventRecommendationsApplied = "recommendations.applied"
	EventRequestFailed          = "request.failed"
)

const (
	EntityProfile = "profile"
	EntityMovie   = "movie"
	EntityChannel = "channel"
)

// ProfileChanged is emitted after a profile mutation has been saved.
type ProfileChanged struct {
	BaseEvent
	Change  string `json:"change"` // "watchlist", "rating", "mood", ...
	MovieID int64  `json:"movie_id,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// NewProfileChanged creates a ProfileChanged event.
func NewProfileChanged(change string, movieID int64, detail string) *ProfileChanged {
	return &ProfileChanged{
		BaseEvent: NewBaseEvent(EventProfileChanged, EntityProfile, movieID),
		Change:    change,
		MovieID:   movieID,
		Detail:    detail,
	}
}

// Summary describes the event in one line.
func (e *ProfileChanged) Summary() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Change, e.Detail)
	}
	return e.Change
}

// SearchCompleted is emitted when search results are applied to the view.
type SearchCompleted struct {
	BaseEvent
	Query     string `json:"query"`
	Results   int    `json:"results"`
	TopID     int64  `json:"top_id,omitempty"`
	TopTitle  string `json:"top_title,omitempty"`
	FromCache bool   `json:"from_cache"`
}

// NewSearchCompleted creates a SearchCompleted event.
func NewSearchCompleted(query string, results int, topID int64, topTitle string, fromCache bool) *SearchCompleted {
	return &SearchCompleted{
		BaseEvent: NewBaseEvent(EventSearchCompleted, EntityMovie, topID),
		Query:     query,
		Results:   results,
		TopID:     topID,
		TopTitle:  topTitle,
		FromCache: fromCache,
	}
}

// Summary describes the event in one line.
func (e *SearchCompleted) Summary() string {
	if e.Results == 0 {
		return fmt.Sprintf("search %q: no results", e.Query)
	}
	return fmt.Sprintf("search %q: %d results, top %q", e.Query, e.Results, e.TopTitle)
}

// RecommendationsApplied is emitted when a recommendation set replaces the
// rendered one.
type RecommendationsApplied struct {
	BaseEvent
	Source    string `json:"source"` // "similar" or "personal"
	SeedID    int64  `json:"seed_id,omitempty"`
	Results   int    `json:"results"`
	FromCache bool   `json:"from_cache"`
}

const (
	SourceSimilar  = "similar"
	SourcePersonal = "personal"
)

// NewRecommendationsApplied creates a RecommendationsApplied event.
func NewRecommendationsApplied(source string, seedID int64, results int, fromCache bool) *RecommendationsApplied {
	return &RecommendationsApplied{
		BaseEvent: NewBaseEvent(EventRecommendationsApplied, EntityMovie, seedID),
		Source:    source,
		SeedID:    seedID,
		Results:   results,
		FromCache: fromCache,
	}
}

// Summary describes the event in one line.
func (e *RecommendationsApplied) Summary() string {
	if e.Source == SourceSimilar {
		return fmt.Sprintf("%d recommendations similar to %d", e.Results, e.SeedID)
	}
	return fmt.Sprintf("%d personal recommendations", e.Results)
}

// RequestFailed is emitted when a request fails for a reason other than
// being superseded.
type RequestFailed struct {
	BaseEvent
	Channel string `json:"channel"`
	Error   string `json:"error"`
}

// NewRequestFailed creates a RequestFailed event.
func NewRequestFailed(channel string, err error) *RequestFailed {
	return &RequestFailed{
		BaseEvent: NewBaseEvent(EventRequestFailed, EntityChannel, 0),
		Channel:   channel,
		Error:     err.Error(),
	}
}

// Summary describes the event in one line.
func (e *RequestFailed) Summary() string {
	return fmt.Sprintf("%s request failed: %s", e.Channel, e.Error)
}

// Summarizer is implemented by events that can describe themselves.
type Summarizer interface {
	Summary() string
}
