package reqcache

import (
	"slices"
	"strconv"
	"strings"
)

// Key lists every parameter that affects a query's result.
type Key struct {
	Query     string
	MovieID   int64 // recommendation seed; zero for text queries
	Languages []string
	SafeMode  bool
}

// String renders the key deterministically. Query text is trimmed,
// lowercased and whitespace-collapsed; languages are treated as a set.
func (k Key) String() string {
	langs := make([]string, 0, len(k.Languages))
	for _, l := range k.Languages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			langs = append(langs, l)
		}
	}
	slices.Sort(langs)
	langs = slices.Compact(langs)

	var b strings.Builder
	if k.MovieID != 0 {
		b.WriteString("movie=")
		b.WriteString(strconv.FormatInt(k.MovieID, 10))
	} else {
		b.WriteString("q=")
		b.WriteString(NormalizeQuery(k.Query))
	}
	b.WriteString("|lang=")
	b.WriteString(strings.Join(langs, ","))
	b.WriteString("|safe=")
	b.WriteString(strconv.FormatBool(k.SafeMode))
	return b.String()
}

// NormalizeQuery trims, lowercases and collapses internal whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
