// Package session ties the profile, request cache, request coordinator and
// debouncers together into the state behind one user's screen.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/marquee/internal/backend"
	"github.com/vmunix/marquee/internal/channel"
	"github.com/vmunix/marquee/internal/debounce"
	"github.com/vmunix/marquee/internal/events"
	"github.com/vmunix/marquee/internal/metrics"
	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/internal/profile"
	"github.com/vmunix/marquee/internal/reqcache"
)

//go:generate mockgen -destination=mocks/backend.go -package=mocks . Backend

// Backend is the movie discovery backend.
type Backend interface {
	Search(ctx context.Context, query string, f backend.Filter) ([]movie.Movie, error)
	Recommendations(ctx context.Context, movieID int64, f backend.Filter) ([]movie.Movie, error)
	ForUser(ctx context.Context, p backend.UserPayload) ([]movie.Movie, error)
	Trending(ctx context.Context, f backend.Filter) ([]movie.Movie, error)
	TopRated(ctx context.Context, f backend.Filter) ([]movie.Movie, error)
}

// Enricher backfills artwork on backend results.
type Enricher interface {
	Backfill(ctx context.Context, movies []movie.Movie) ([]movie.Movie, error)
}

// View renders session state. Calls are serialized and made while the
// session holds internal locks, so implementations must not call back into
// the Session.
type View interface {
	// ShowSuggestions replaces the suggestion list. selected is -1 when
	// nothing is highlighted; an empty list hides the dropdown.
	ShowSuggestions(items []movie.Movie, selected int)
	// ShowResults replaces the search results. An empty list means
	// nothing was found.
	ShowResults(query string, results []movie.Movie)
	ShowRecommendations(items []movie.Movie)
	HideRecommendations()
	ShowRecommendationsError(err error)
	// Notice shows a transient message.
	Notice(msg string)
}

var (
	// ErrSuperseded is returned when a newer request replaced this one
	// before its results could be applied.
	ErrSuperseded = channel.ErrSuperseded

	// ErrNoSuggestion indicates a selection index outside the suggestion list.
	ErrNoSuggestion = errors.New("no such suggestion")
)

// Config holds session timing and result sizes.
type Config struct {
	SuggestionDelay     time.Duration
	RefreshDelay        time.Duration
	SuggestionLimit     int
	SearchLimit         int
	RecommendationLimit int
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		SuggestionDelay:     150 * time.Millisecond,
		RefreshDelay:        400 * time.Millisecond,
		SuggestionLimit:     6,
		SearchLimit:         12,
		RecommendationLimit: 10,
	}
}

// Deps are the session's collaborators. Backend, Profiles and View are
// required.
type Deps struct {
	Backend  Backend
	Profiles *profile.Store
	View     View
	Cache    *reqcache.Cache // nil uses a fresh cache with the default TTL
	Enricher Enricher        // optional
	Bus      *events.Bus     // optional
	Logger   *slog.Logger
}

// Session is one user's discovery session.
//
// Lock order: coordinator, then mu. mu also serializes View calls.
// Search saves the history while holding the coordinator, so every Begin
// and Cancel waits for that one key-value write. Event persistence always
// happens after the coordinator is released.
type Session struct {
	cfg      Config
	backend  Backend
	profiles *profile.Store
	view     View
	cache    *reqcache.Cache
	enricher Enricher
	bus      *events.Bus
	coord    *channel.Coordinator
	log      *slog.Logger

	suggestDebounce *debounce.Debouncer
	refreshDebounce *debounce.Debouncer

	// ctx bounds work started by timers rather than by a caller.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	input       string
	suggestions []movie.Movie
	selected    int
}

// New creates a session and subscribes it to profile changes.
func New(deps Deps, cfg Config) *Session {
	def := DefaultConfig()
	if cfg.SuggestionDelay <= 0 {
		cfg.SuggestionDelay = def.SuggestionDelay
	}
	if cfg.RefreshDelay <= 0 {
		cfg.RefreshDelay = def.RefreshDelay
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = def.SuggestionLimit
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.RecommendationLimit <= 0 {
		cfg.RecommendationLimit = def.RecommendationLimit
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := deps.Cache
	if cache == nil {
		cache = reqcache.New(reqcache.DefaultTTL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:             cfg,
		backend:         deps.Backend,
		profiles:        deps.Profiles,
		view:            deps.View,
		cache:           cache,
		enricher:        deps.Enricher,
		bus:             deps.Bus,
		coord:           channel.NewCoordinator(logger.With("component", "coordinator")),
		log:             logger.With("component", "session"),
		suggestDebounce: debounce.New("suggestions", cfg.SuggestionDelay),
		refreshDebounce: debounce.New("recommendations", cfg.RefreshDelay),
		ctx:             ctx,
		cancel:          cancel,
		selected:        -1,
	}
	s.profiles.OnChange(s.profileChanged)
	return s
}

// Stats is a snapshot of the session's request machinery.
type Stats struct {
	LiveRequests int                  // channels with a request in flight
	Cached       map[channel.Name]int // cache entries per channel, expired included
	CacheTTL     time.Duration
	SuggestDelay time.Duration
	RefreshDelay time.Duration
}

// Stats reports in-flight requests, cache sizes and debounce delays.
func (s *Session) Stats() Stats {
	st := Stats{
		LiveRequests: s.coord.Live(),
		Cached:       make(map[channel.Name]int, 3),
		CacheTTL:     s.cache.TTL(),
		SuggestDelay: s.suggestDebounce.Delay(),
		RefreshDelay: s.refreshDebounce.Delay(),
	}
	for _, ch := range []channel.Name{channel.Suggestions, channel.Search, channel.Recommendations} {
		st.Cached[ch] = s.cache.Len(ch)
	}
	return st
}

// Profiles returns the session's profile store.
func (s *Session) Profiles() *profile.Store { return s.profiles }

// Close cancels pending timers and in-flight requests. The view is not
// touched afterwards.
func (s *Session) Close() {
	s.profiles.OnChange(nil)
	s.suggestDebounce.Cancel()
	s.refreshDebounce.Cancel()
	for _, ch := range []channel.Name{channel.Suggestions, channel.Search, channel.Recommendations} {
		s.coord.Cancel(ch)
	}
	s.cancel()
}

func (s *Session) profileChanged(change profile.Change, _ profile.Profile) {
	// History changes happen inside coordinator.Apply; Search publishes them
	// once the coordinator is released.
	if change == profile.ChangeHistory {
		return
	}
	s.publish(events.NewProfileChanged(string(change), 0, ""))
	if change.AffectsRecommendations() {
		s.NotifyProfileChanged()
	}
}

// filter builds backend filters from the profile.
func filter(p profile.Profile, limit int) backend.Filter {
	return backend.Filter{SafeMode: p.SafeMode, Languages: p.Language, Limit: limit}
}

func (s *Session) enrich(ctx context.Context, movies []movie.Movie) ([]movie.Movie, error) {
	if s.enricher == nil {
		return movies, nil
	}
	return s.enricher.Backfill(ctx, movies)
}

func (s *Session) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(context.WithoutCancel(s.ctx), e)
	}
}

// render runs fn with the view lock held.
func (s *Session) render(fn func(v View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.view)
}

// abandoned reports why tok's request should be dropped silently, or nil
// if it was not cancelled.
func abandoned(tok *channel.Token) error {
	if !tok.Cancelled() {
		return nil
	}
	outcome := "cancelled"
	if tok.Superseded() {
		outcome = "superseded"
	}
	metrics.RequestsTotal.WithLabelValues(string(tok.Channel()), outcome).Inc()
	return context.Cause(tok.Context())
}

// failed records a genuine failure on tok's channel and, if tok is still
// current, lets show report it.
func (s *Session) failed(tok *channel.Token, err error, show func(v View)) error {
	if cause := abandoned(tok); cause != nil {
		return cause
	}
	ch := string(tok.Channel())
	metrics.RequestsTotal.WithLabelValues(ch, "failed").Inc()
	s.log.Warn("request failed", "channel", ch, "error", err)
	s.publish(events.NewRequestFailed(ch, err))
	s.coord.Apply(tok, func() { s.render(show) })
	return err
}

// applied records the outcome of a successful apply.
func applied(ch channel.Name, results int) {
	outcome := "applied"
	if results == 0 {
		outcome = "empty"
	}
	metrics.RequestsTotal.WithLabelValues(string(ch), outcome).Inc()
}

// timed runs fetch and records its duration for ch.
func timed(ch channel.Name, fetch func() ([]movie.Movie, error)) ([]movie.Movie, error) {
	start := time.Now()
	movies, err := fetch()
	metrics.RequestDuration.WithLabelValues(string(ch)).Observe(time.Since(start).Seconds())
	return movies, err
}
