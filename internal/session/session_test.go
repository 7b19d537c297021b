package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/marquee/internal/backend"
	"github.com/vmunix/marquee/internal/channel"
	"github.com/vmunix/marquee/internal/events"
	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/internal/profile"
	"github.com/vmunix/marquee/internal/session"
	"github.com/vmunix/marquee/internal/session/mocks"
	"github.com/vmunix/marquee/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingView captures what the session renders.
type recordingView struct {
	mu          sync.Mutex
	suggestions []movie.Movie
	suggested   []string // every title ever shown as a suggestion
	selected    int
	query       string
	results     []movie.Movie
	resultCalls int
	recs        []movie.Movie
	recsShown   bool
	recsHidden  bool
	recsErr     error
	notices     []string
}

func (v *recordingView) ShowSuggestions(items []movie.Movie, selected int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.suggestions, v.selected = items, selected
	for _, m := range items {
		v.suggested = append(v.suggested, m.Title)
	}
}

func (v *recordingView) ShowResults(query string, results []movie.Movie) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query, v.results = query, results
	v.resultCalls++
}

func (v *recordingView) ShowRecommendations(items []movie.Movie) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.recs, v.recsShown, v.recsHidden, v.recsErr = items, true, false, nil
}

func (v *recordingView) HideRecommendations() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.recs, v.recsShown, v.recsHidden = nil, false, true
}

func (v *recordingView) ShowRecommendationsError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.recsErr = err
}

func (v *recordingView) Notice(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, msg)
}

func (v *recordingView) snapshot() recordingView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return recordingView{
		suggestions: v.suggestions,
		suggested:   append([]string(nil), v.suggested...),
		selected:    v.selected,
		query:       v.query,
		results:     v.results,
		resultCalls: v.resultCalls,
		recs:        v.recs,
		recsShown:   v.recsShown,
		recsHidden:  v.recsHidden,
		recsErr:     v.recsErr,
		notices:     append([]string(nil), v.notices...),
	}
}

type fixture struct {
	session *session.Session
	backend *mocks.MockBackend
	view    *recordingView
	store   *profile.Store
}

func testConfig() session.Config {
	return session.Config{
		SuggestionDelay:     20 * time.Millisecond,
		RefreshDelay:        30 * time.Millisecond,
		SuggestionLimit:     6,
		SearchLimit:         12,
		RecommendationLimit: 10,
	}
}

func newFixture(t *testing.T, deps session.Deps) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store, err := profile.Load(context.Background(), storage.NewMemoryKV(), profile.WithLogger(testLogger()))
	require.NoError(t, err)

	mb := mocks.NewMockBackend(ctrl)
	view := &recordingView{selected: -1}
	deps.Backend = mb
	deps.Profiles = store
	deps.View = view
	deps.Logger = testLogger()

	s := session.New(deps, testConfig())
	t.Cleanup(s.Close)
	return &fixture{session: s, backend: mb, view: view, store: store}
}

func movies(titles ...string) []movie.Movie {
	out := make([]movie.Movie, len(titles))
	for i, title := range titles {
		out[i] = movie.Movie{ID: int64(100 + i), Title: title, PosterURL: "https://img.example/" + title}
	}
	return out
}

func TestSession_OnInput_LocalMatch(t *testing.T) {
	f := newFixture(t, session.Deps{})
	// No backend expectations: any network call fails the test.

	f.session.OnInput("a")
	time.Sleep(3 * testConfig().SuggestionDelay)

	got := f.view.snapshot()
	require.Len(t, got.suggestions, 4)
	assert.Equal(t, "Avatar", got.suggestions[0].Title)
	assert.Equal(t, -1, got.selected)
}

func TestSession_OnInput_SingleUnmatchedCharacter(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.session.OnInput("q")
	time.Sleep(3 * testConfig().SuggestionDelay)

	items, sel := f.session.Suggestions()
	assert.Empty(t, items)
	assert.Equal(t, -1, sel)
}

func TestSession_OnInput_DebouncesBurst(t *testing.T) {
	f := newFixture(t, session.Deps{})

	done := make(chan struct{})
	f.backend.EXPECT().
		Search(gomock.Any(), "star wars", gomock.Any()).
		DoAndReturn(func(context.Context, string, backend.Filter) ([]movie.Movie, error) {
			defer close(done)
			return movies("Star Wars", "Star Wars: The Last Jedi"), nil
		}).
		Times(1)

	for _, text := range []string{"star", "star ", "star w", "star wa", "star war", "star wars"} {
		f.session.OnInput(text)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("suggestion query never ran")
	}
	assert.Eventually(t, func() bool {
		return len(f.view.snapshot().suggestions) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSession_OnInput_CapsNetworkResults(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		Search(gomock.Any(), "batman", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fl backend.Filter) ([]movie.Movie, error) {
			assert.Equal(t, 6, fl.Limit)
			return movies("1", "2", "3", "4", "5", "6", "7", "8", "9", "10"), nil
		})

	f.session.OnInput("batman")

	assert.Eventually(t, func() bool {
		return len(f.view.snapshot().suggestions) == 6
	}, time.Second, 5*time.Millisecond)
}

func TestSession_OnInput_EmptyCancelsPending(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.session.OnInput("star")
	f.session.OnInput("")
	time.Sleep(3 * testConfig().SuggestionDelay)

	items, _ := f.session.Suggestions()
	assert.Empty(t, items)
}

func TestSession_OnInput_SuggestionFailureShowsNotice(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		Search(gomock.Any(), "batman", gomock.Any()).
		Return(nil, errors.New("connection refused"))

	f.session.OnInput("batman")

	assert.Eventually(t, func() bool {
		return len(f.view.snapshot().notices) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSession_OnInput_DropsStaleResponse(t *testing.T) {
	f := newFixture(t, session.Deps{})

	started := make(chan struct{})
	release := make(chan struct{})
	returned := make(chan struct{})
	f.backend.EXPECT().
		Search(gomock.Any(), "batman", gomock.Any()).
		DoAndReturn(func(context.Context, string, backend.Filter) ([]movie.Movie, error) {
			// Ignores cancellation: the response arrives regardless.
			defer close(returned)
			close(started)
			<-release
			return movies("Batman", "Batman Returns"), nil
		})
	f.backend.EXPECT().
		Search(gomock.Any(), "batman begins", gomock.Any()).
		Return(movies("Batman Begins"), nil)

	f.session.OnInput("batman")
	<-started

	f.session.OnInput("batman begins")
	close(release)
	<-returned

	assert.Eventually(t, func() bool {
		got := f.view.snapshot().suggestions
		return len(got) == 1 && got[0].Title == "Batman Begins"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Batman Begins"}, f.view.snapshot().suggested,
		"the response for the older input is never shown")
}

func TestSession_MoveSelection(t *testing.T) {
	f := newFixture(t, session.Deps{})

	assert.Equal(t, -1, f.session.MoveSelection(1), "no suggestions")

	f.session.OnInput("a")

	tests := []struct {
		delta int
		want  int
	}{
		{-1, -1},
		{1, 0},
		{10, 3},
		{1, 3},
		{-2, 1},
		{-10, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.session.MoveSelection(tt.delta), "delta %d", tt.delta)
	}
	assert.Equal(t, -1, f.view.snapshot().selected)
}

func TestSession_SelectSuggestion(t *testing.T) {
	f := newFixture(t, session.Deps{})

	err := f.session.SelectSuggestion(context.Background(), 0)
	require.ErrorIs(t, err, session.ErrNoSuggestion)

	f.session.OnInput("a")
	f.backend.EXPECT().
		Search(gomock.Any(), "Avatar", gomock.Any()).
		Return(movies("Avatar"), nil)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(100), gomock.Any()).
		Return(movies("Aliens"), nil)

	require.NoError(t, f.session.SelectSuggestion(context.Background(), 0))

	got := f.view.snapshot()
	assert.Empty(t, got.suggestions)
	assert.Equal(t, "Avatar", got.query)
}

func TestSession_ConfirmSelection_UsesInput(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		Search(gomock.Any(), "zzzzzznotfound", gomock.Any()).
		Return([]movie.Movie{}, nil).
		AnyTimes()

	f.session.OnInput("zzzzzznotfound")
	require.NoError(t, f.session.ConfirmSelection(context.Background()))

	got := f.view.snapshot()
	assert.Equal(t, "zzzzzznotfound", got.query)
	assert.Empty(t, got.suggestions)
}

func TestSession_Search(t *testing.T) {
	bus := events.NewBus(nil, testLogger())
	t.Cleanup(func() { _ = bus.Close() })
	sub := bus.Subscribe(10, events.EventSearchCompleted)

	f := newFixture(t, session.Deps{Bus: bus})

	f.backend.EXPECT().
		Search(gomock.Any(), "inception", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fl backend.Filter) ([]movie.Movie, error) {
			assert.Equal(t, 12, fl.Limit)
			assert.Equal(t, []string{"en"}, fl.Languages)
			return movies("Inception", "Interstellar"), nil
		})
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(100), gomock.Any()).
		Return(movies("Tenet", "Memento"), nil)

	require.NoError(t, f.session.Search(context.Background(), "  inception "))

	got := f.view.snapshot()
	assert.Equal(t, "inception", got.query)
	require.Len(t, got.results, 2)
	assert.True(t, got.recsShown)
	assert.Len(t, got.recs, 2)
	assert.Equal(t, []int64{100}, f.store.Get().History)

	select {
	case e := <-sub:
		sc, ok := e.(*events.SearchCompleted)
		require.True(t, ok)
		assert.Equal(t, "Inception", sc.TopTitle)
		assert.False(t, sc.FromCache)
	case <-time.After(time.Second):
		t.Fatal("no search event")
	}
}

func TestSession_Search_Blank(t *testing.T) {
	f := newFixture(t, session.Deps{})

	require.NoError(t, f.session.Search(context.Background(), "   "))
	assert.Zero(t, f.view.snapshot().resultCalls)
}

func TestSession_Search_Empty(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		Search(gomock.Any(), "zzzzzznotfound", gomock.Any()).
		Return([]movie.Movie{}, nil)

	require.NoError(t, f.session.Search(context.Background(), "zzzzzznotfound"))

	got := f.view.snapshot()
	assert.Equal(t, 1, got.resultCalls)
	assert.Empty(t, got.results)
	assert.True(t, got.recsHidden)
	assert.Empty(t, f.store.Get().History)
}

func TestSession_Search_NewerSupersedesOlder(t *testing.T) {
	f := newFixture(t, session.Deps{})

	started := make(chan struct{})
	f.backend.EXPECT().
		Search(gomock.Any(), "matrix", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ backend.Filter) ([]movie.Movie, error) {
			close(started)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
				return movies("The Matrix"), nil
			}
		})
	f.backend.EXPECT().
		Search(gomock.Any(), "inception", gomock.Any()).
		Return([]movie.Movie{{ID: 27205, Title: "Inception"}}, nil)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(27205), gomock.Any()).
		Return(movies("Tenet"), nil)

	matrixErr := make(chan error, 1)
	go func() {
		matrixErr <- f.session.Search(context.Background(), "matrix")
	}()
	<-started

	require.NoError(t, f.session.Search(context.Background(), "inception"))

	select {
	case err := <-matrixErr:
		require.ErrorIs(t, err, session.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("superseded search never returned")
	}

	got := f.view.snapshot()
	assert.Equal(t, "inception", got.query)
	assert.Equal(t, 1, got.resultCalls)
	require.Len(t, got.recs, 1)
	assert.Equal(t, "Tenet", got.recs[0].Title)
	assert.Equal(t, []int64{27205}, f.store.Get().History)
	assert.Empty(t, got.notices)
}

func TestSession_Search_LateResponseIgnored(t *testing.T) {
	f := newFixture(t, session.Deps{})

	started := make(chan struct{})
	release := make(chan struct{})
	f.backend.EXPECT().
		Search(gomock.Any(), "matrix", gomock.Any()).
		DoAndReturn(func(context.Context, string, backend.Filter) ([]movie.Movie, error) {
			// A transport that never aborts: the old response still lands.
			close(started)
			<-release
			return []movie.Movie{{ID: 603, Title: "The Matrix"}}, nil
		})
	f.backend.EXPECT().
		Search(gomock.Any(), "inception", gomock.Any()).
		Return([]movie.Movie{{ID: 27205, Title: "Inception"}}, nil)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(27205), gomock.Any()).
		Return(movies("Tenet"), nil)

	matrixErr := make(chan error, 1)
	go func() {
		matrixErr <- f.session.Search(context.Background(), "matrix")
	}()
	<-started

	require.NoError(t, f.session.Search(context.Background(), "inception"))
	close(release)

	select {
	case err := <-matrixErr:
		require.ErrorIs(t, err, session.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("superseded search never returned")
	}

	got := f.view.snapshot()
	assert.Equal(t, "inception", got.query)
	assert.Equal(t, 1, got.resultCalls)
	require.Len(t, got.results, 1)
	assert.Equal(t, int64(27205), got.results[0].ID)
	require.Len(t, got.recs, 1)
	assert.Equal(t, "Tenet", got.recs[0].Title)
	assert.Equal(t, []int64{27205}, f.store.Get().History)

	// The late response was not cached: searching again goes to the network.
	f.backend.EXPECT().
		Search(gomock.Any(), "matrix", gomock.Any()).
		Return([]movie.Movie{{ID: 603, Title: "The Matrix"}}, nil)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(603), gomock.Any()).
		Return(movies("The Matrix Reloaded"), nil)

	require.NoError(t, f.session.Search(context.Background(), "matrix"))
	assert.Equal(t, []int64{603, 27205}, f.store.Get().History)
}

func TestSession_Search_CacheHit(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		Search(gomock.Any(), "inception", gomock.Any()).
		Return(movies("Inception"), nil).
		Times(1)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(100), gomock.Any()).
		Return(movies("Tenet"), nil).
		Times(1)

	ctx := context.Background()
	require.NoError(t, f.session.Search(ctx, "inception"))
	require.NoError(t, f.session.Search(ctx, "Inception"))

	got := f.view.snapshot()
	assert.Equal(t, 2, got.resultCalls)
	assert.Len(t, got.recs, 1)
}

func TestSession_Search_Failure(t *testing.T) {
	f := newFixture(t, session.Deps{})

	boom := errors.New("backend down")
	f.backend.EXPECT().
		Search(gomock.Any(), "inception", gomock.Any()).
		Return(nil, boom)

	err := f.session.Search(context.Background(), "inception")
	require.ErrorIs(t, err, boom)

	got := f.view.snapshot()
	assert.Zero(t, got.resultCalls)
	assert.Len(t, got.notices, 1)
}

func TestSession_Search_RecommendationFailure(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		Search(gomock.Any(), "inception", gomock.Any()).
		Return(movies("Inception"), nil)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(100), gomock.Any()).
		Return(nil, errors.New("timeout"))

	require.NoError(t, f.session.Search(context.Background(), "inception"))

	got := f.view.snapshot()
	assert.Len(t, got.results, 1)
	require.Error(t, got.recsErr)
}

func TestSession_Search_SafeMode(t *testing.T) {
	f := newFixture(t, session.Deps{})

	safe := true
	require.NoError(t, f.store.Update(context.Background(), profile.Form{SafeMode: &safe}))
	// The profile edit schedules a refresh.
	f.backend.EXPECT().ForUser(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	f.backend.EXPECT().
		Search(gomock.Any(), "film", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fl backend.Filter) ([]movie.Movie, error) {
			assert.True(t, fl.SafeMode)
			return []movie.Movie{{ID: 1, Title: "Adult", Adult: true}, {ID: 2, Title: "Family"}}, nil
		})
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(2), gomock.Any()).
		Return(nil, nil)

	require.NoError(t, f.session.Search(context.Background(), "film"))

	got := f.view.snapshot()
	require.Len(t, got.results, 1)
	assert.Equal(t, "Family", got.results[0].Title)
}

func TestSession_ProfileChangeRefreshes(t *testing.T) {
	f := newFixture(t, session.Deps{})

	payloads := make(chan backend.UserPayload, 4)
	f.backend.EXPECT().
		ForUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p backend.UserPayload) ([]movie.Movie, error) {
			payloads <- p
			return movies("Paddington"), nil
		}).
		Times(1)

	ctx := context.Background()
	m := movie.Movie{ID: 603, Title: "The Matrix"}
	added, err := f.store.ToggleWatchlist(ctx, m)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = f.store.ToggleWatchlist(ctx, m)
	require.NoError(t, err)
	assert.False(t, added)

	assert.Empty(t, f.store.Get().Watchlist)

	select {
	case p := <-payloads:
		assert.Empty(t, p.Watchlist)
		assert.Equal(t, string(profile.MoodHappy), p.Mood)
		assert.Equal(t, 25, p.Age)
	case <-time.After(time.Second):
		t.Fatal("refresh never ran")
	}
	assert.Eventually(t, func() bool {
		return len(f.view.snapshot().recs) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSession_HistoryDoesNotRefresh(t *testing.T) {
	f := newFixture(t, session.Deps{})

	require.NoError(t, f.store.RecordHistory(context.Background(), 42))
	time.Sleep(3 * testConfig().RefreshDelay)
	assert.False(t, f.view.snapshot().recsShown)
}

func TestSession_RefreshRecommendations_Failure(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		ForUser(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("bad gateway"))

	err := f.session.RefreshRecommendations(context.Background())
	require.Error(t, err)
	require.Error(t, f.view.snapshot().recsErr)
}

func TestSession_RefreshRecommendations_Cancelled(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		ForUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ backend.UserPayload) ([]movie.Movie, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := f.session.RefreshRecommendations(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	got := f.view.snapshot()
	assert.False(t, got.recsShown)
	assert.NoError(t, got.recsErr)
}

func TestSession_RefreshRecommendations_Empty(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		ForUser(gomock.Any(), gomock.Any()).
		Return([]movie.Movie{}, nil)

	require.NoError(t, f.session.RefreshRecommendations(context.Background()))

	got := f.view.snapshot()
	assert.True(t, got.recsShown)
	assert.Empty(t, got.recs)
}

func TestSession_Trending(t *testing.T) {
	f := newFixture(t, session.Deps{})

	f.backend.EXPECT().
		Trending(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fl backend.Filter) ([]movie.Movie, error) {
			assert.Equal(t, 5, fl.Limit)
			return movies("Dune"), nil
		})
	f.backend.EXPECT().
		TopRated(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("nope"))

	got, err := f.session.Trending(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.session.TopRated(context.Background(), 5)
	require.Error(t, err)
}

// gatedLog blocks persistence of history events until released.
type gatedLog struct {
	entered chan struct{}
	release chan struct{}
}

func (l *gatedLog) Append(_ context.Context, e events.Event) (int64, error) {
	if pc, ok := e.(*events.ProfileChanged); ok && pc.Change == string(profile.ChangeHistory) {
		close(l.entered)
		<-l.release
	}
	return 1, nil
}

func TestSession_Search_HistoryEventOutsideCoordinator(t *testing.T) {
	log := &gatedLog{entered: make(chan struct{}), release: make(chan struct{})}
	bus := events.NewBus(log, testLogger())
	t.Cleanup(func() { _ = bus.Close() })
	sub := bus.Subscribe(10, events.EventProfileChanged)

	f := newFixture(t, session.Deps{Bus: bus})
	f.backend.EXPECT().
		Search(gomock.Any(), "heat", gomock.Any()).
		Return([]movie.Movie{{ID: 949, Title: "Heat"}}, nil)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(949), gomock.Any()).
		Return(movies("Collateral"), nil)

	searched := make(chan error, 1)
	go func() { searched <- f.session.Search(context.Background(), "heat") }()
	<-log.entered

	// Clearing the input cancels the suggestions channel, which needs the
	// coordinator. It must not wait for the history event to persist.
	cleared := make(chan struct{})
	go func() {
		f.session.OnInput("")
		close(cleared)
	}()
	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("coordinator held while persisting the history event")
	}

	close(log.release)
	require.NoError(t, <-searched)
	assert.Equal(t, []int64{949}, f.store.Get().History)

	select {
	case e := <-sub:
		pc, ok := e.(*events.ProfileChanged)
		require.True(t, ok)
		assert.Equal(t, string(profile.ChangeHistory), pc.Change)
		assert.Equal(t, int64(949), pc.MovieID)
	case <-time.After(time.Second):
		t.Fatal("no history event")
	}
}

func TestSession_Stats(t *testing.T) {
	f := newFixture(t, session.Deps{})

	st := f.session.Stats()
	assert.Zero(t, st.LiveRequests)
	assert.Equal(t, testConfig().SuggestionDelay, st.SuggestDelay)
	assert.Equal(t, testConfig().RefreshDelay, st.RefreshDelay)
	assert.Positive(t, st.CacheTTL)

	f.backend.EXPECT().
		Search(gomock.Any(), "heat", gomock.Any()).
		Return([]movie.Movie{{ID: 949, Title: "Heat"}}, nil)
	f.backend.EXPECT().
		Recommendations(gomock.Any(), int64(949), gomock.Any()).
		Return(movies("Collateral"), nil)
	require.NoError(t, f.session.Search(context.Background(), "heat"))

	st = f.session.Stats()
	assert.Zero(t, st.LiveRequests, "finished requests release their channel")
	assert.Equal(t, 1, st.Cached[channel.Search])
	assert.Equal(t, 1, st.Cached[channel.Recommendations])
	assert.Equal(t, 0, st.Cached[channel.Suggestions])
}
