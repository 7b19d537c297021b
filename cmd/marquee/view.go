package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/vmunix/marquee/internal/movie"
)

// Update kinds sent on terminalView.updates.
const (
	updateSuggestions     = "suggestions"
	updateResults         = "results"
	updateRecommendations = "recommendations"
	updateNotice          = "notice"
)

// terminalView renders session state as text or JSON lines. The session
// serializes render calls; mu guards only what the shell reads back.
type terminalView struct {
	out     io.Writer
	json    bool
	updates chan string

	mu   sync.Mutex
	last []movie.Movie // most recently listed results or recommendations
}

func newTerminalView(out io.Writer, asJSON bool) *terminalView {
	return &terminalView{out: out, json: asJSON, updates: make(chan string, 16)}
}

// viewEvent is one JSON line.
type viewEvent struct {
	Kind     string        `json:"kind"`
	Query    string        `json:"query,omitempty"`
	Movies   []movie.Movie `json:"movies,omitempty"`
	Selected *int          `json:"selected,omitempty"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
}

func (v *terminalView) emit(e viewEvent) {
	_ = printJSONLine(v.out, e)
}

func printJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func (v *terminalView) notify(kind string) {
	select {
	case v.updates <- kind:
	default:
	}
}

// lastListed returns the i-th (1-based) movie of the most recent listing.
func (v *terminalView) lastListed(i int) (movie.Movie, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i < 1 || i > len(v.last) {
		return movie.Movie{}, false
	}
	return v.last[i-1], true
}

func (v *terminalView) remember(movies []movie.Movie) {
	if len(movies) == 0 {
		return
	}
	v.mu.Lock()
	v.last = movie.Clone(movies)
	v.mu.Unlock()
}

func (v *terminalView) ShowSuggestions(items []movie.Movie, selected int) {
	defer v.notify(updateSuggestions)
	if v.json {
		v.emit(viewEvent{Kind: updateSuggestions, Movies: items, Selected: &selected})
		return
	}
	if len(items) == 0 {
		return
	}
	for i, m := range items {
		marker := "  "
		if i == selected {
			marker = "> "
		}
		fmt.Fprintf(v.out, "%s%s\n", marker, movieLabel(m))
	}
}

func (v *terminalView) ShowResults(query string, results []movie.Movie) {
	defer v.notify(updateResults)
	v.remember(results)
	if v.json {
		v.emit(viewEvent{Kind: updateResults, Query: query, Movies: results})
		return
	}
	if len(results) == 0 {
		fmt.Fprintf(v.out, "No movies found for %q\n", query)
		return
	}
	fmt.Fprintf(v.out, "Found %d movies for %q:\n\n", len(results), query)
	printMovieTable(v.out, results)
}

func (v *terminalView) ShowRecommendations(items []movie.Movie) {
	defer v.notify(updateRecommendations)
	v.remember(items)
	if v.json {
		v.emit(viewEvent{Kind: updateRecommendations, Movies: items})
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(v.out, "\nNo recommendations yet. Rate or add movies to your watchlist.")
		return
	}
	fmt.Fprintf(v.out, "\nRecommended for you (%d):\n\n", len(items))
	printMovieTable(v.out, items)
}

func (v *terminalView) HideRecommendations() {
	defer v.notify(updateRecommendations)
	if v.json {
		v.emit(viewEvent{Kind: "recommendations_hidden"})
	}
}

func (v *terminalView) ShowRecommendationsError(err error) {
	defer v.notify(updateRecommendations)
	if v.json {
		v.emit(viewEvent{Kind: "recommendations_error", Error: err.Error()})
		return
	}
	fmt.Fprintln(v.out, "\nCould not load recommendations. Try again later.")
}

func (v *terminalView) Notice(msg string) {
	defer v.notify(updateNotice)
	if v.json {
		v.emit(viewEvent{Kind: updateNotice, Message: msg})
		return
	}
	fmt.Fprintln(v.out, msg)
}

func movieLabel(m movie.Movie) string {
	if y := m.Year(); y > 0 {
		return fmt.Sprintf("%s (%d)", m.Title, y)
	}
	return m.Title
}

func printMovieTable(w io.Writer, movies []movie.Movie) {
	fmt.Fprintf(w, "  # │ %-8s │ %-40s │ %4s │ %s\n", "ID", "TITLE", "YEAR", "RATING")
	fmt.Fprintln(w, "────┼──────────┼──────────────────────────────────────────┼──────┼───────")
	for i, m := range movies {
		year := "-"
		if y := m.Year(); y > 0 {
			year = fmt.Sprint(y)
		}
		fmt.Fprintf(w, " %2d │ %-8d │ %-40s │ %4s │ %s\n",
			i+1, m.ID, truncate(m.Title, 40), year, formatRating(m.VoteAverage))
	}
}

func formatRating(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
