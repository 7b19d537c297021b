// Package movie defines the movie summary shared by the backend, the
// metadata service and the session.
package movie

import (
	"strconv"
	"strings"
)

// Movie is a movie summary as returned by the backend.
// ID is the only identity key; every membership test uses it.
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	ReleaseDate  string  `json:"release_date,omitempty"` // "2024-03-01"
	Overview     string  `json:"overview,omitempty"`
	Runtime      int     `json:"runtime,omitempty"` // minutes
	VoteAverage  float64 `json:"vote_average"`
	PosterPath   string  `json:"poster_path,omitempty"` // "/abc123.jpg" or absolute URL
	PosterURL    string  `json:"poster_url,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	Genres       []Genre `json:"genres,omitempty"`
	Adult        bool    `json:"adult"`
}

// Genre is a genre reference.
type Genre struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Poster returns the first usable poster reference.
func (m *Movie) Poster() string {
	if m.PosterURL != "" {
		return m.PosterURL
	}
	return m.PosterPath
}

// HasArtwork reports whether both a poster and a backdrop are present.
func (m *Movie) HasArtwork() bool {
	return m.Poster() != "" && m.BackdropPath != ""
}

// GenreNames returns the genre names joined with ", ".
func (m *Movie) GenreNames() string {
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// SafeFilter drops adult titles when safe is true. The input is not modified.
func SafeFilter(movies []Movie, safe bool) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if safe && m.Adult {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Clone returns a copy of movies that shares no backing arrays with the input.
func Clone(movies []Movie) []Movie {
	if movies == nil {
		return nil
	}
	out := make([]Movie, len(movies))
	for i, m := range movies {
		m.Genres = append([]Genre(nil), m.Genres...)
		out[i] = m
	}
	return out
}

// IDs returns the ids of movies in order.
func IDs(movies []Movie) []int64 {
	ids := make([]int64, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	return ids
}

// Limit truncates movies to at most n entries. n <= 0 means no limit.
func Limit(movies []Movie, n int) []Movie {
	if n <= 0 || len(movies) <= n {
		return movies
	}
	return movies[:n]
}
