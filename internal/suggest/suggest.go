// Package suggest answers very short inputs from a fixed list of well-known
// titles so that the first keystrokes never touch the network.
package suggest

import (
	"unicode/utf8"

	"github.com/vmunix/marquee/internal/movie"
	"github.com/vmunix/marquee/pkg/title"
)

const (
	// MaxLocalInput is the longest input answered locally.
	MaxLocalInput = 3
	// MaxLocalResults caps local matches.
	MaxLocalResults = 4
)

// popular is ordered; matches are returned in this order.
var popular = []movie.Movie{
	{ID: 19995, Title: "Avatar", ReleaseDate: "2009-12-15"},
	{ID: 24428, Title: "The Avengers", ReleaseDate: "2012-04-25"},
	{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"},
	{ID: 157336, Title: "Interstellar", ReleaseDate: "2014-11-05"},
	{ID: 155, Title: "The Dark Knight", ReleaseDate: "2008-07-16"},
	{ID: 597, Title: "Titanic", ReleaseDate: "1997-11-18"},
	{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30"},
	{ID: 299534, Title: "Avengers: Endgame", ReleaseDate: "2019-04-24"},
	{ID: 329, Title: "Jurassic Park", ReleaseDate: "1993-06-11"},
	{ID: 109445, Title: "Frozen", ReleaseDate: "2013-11-20"},
	{ID: 475557, Title: "Joker", ReleaseDate: "2019-10-01"},
	{ID: 496243, Title: "Parasite", ReleaseDate: "2019-05-30"},
	{ID: 98, Title: "Gladiator", ReleaseDate: "2000-05-01"},
	{ID: 680, Title: "Pulp Fiction", ReleaseDate: "1994-09-10"},
	{ID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15"},
	{ID: 13, Title: "Forrest Gump", ReleaseDate: "1994-06-23"},
	{ID: 238, Title: "The Godfather", ReleaseDate: "1972-03-14"},
	{ID: 862, Title: "Toy Story", ReleaseDate: "1995-10-30"},
	{ID: 14160, Title: "Up", ReleaseDate: "2009-05-28"},
	{ID: 354912, Title: "Coco", ReleaseDate: "2017-10-27"},
}

// Local returns up to MaxLocalResults titles containing text, ignoring case
// and accents. Inputs that are empty or longer than MaxLocalInput runes
// return nil.
func Local(text string) []movie.Movie {
	needle := title.Fold(text)
	n := utf8.RuneCountInString(needle)
	if n == 0 || n > MaxLocalInput {
		return nil
	}

	var out []movie.Movie
	for _, m := range popular {
		if title.Contains(m.Title, needle) {
			out = append(out, m)
			if len(out) == MaxLocalResults {
				break
			}
		}
	}
	return out
}
