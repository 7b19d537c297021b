// Package tmdb is a client for The Movie Database API, used to backfill
// artwork and fetch trailers and the language catalog.
package tmdb

import "strconv"

// Movie is the detail record of GET /3/movie/{id}.
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"` // "2024-03-01"
	PosterPath   string  `json:"poster_path"`  // "/abc123.jpg"
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Runtime      int     `json:"runtime"` // minutes
	Adult        bool    `json:"adult"`
	Genres       []Genre `json:"genres"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
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

// Video is one entry of GET /3/movie/{id}/videos.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"` // "YouTube"
	Type     string `json:"type"` // "Trailer", "Teaser", "Clip"
	Official bool   `json:"official"`
}

type videosResponse struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// Language is one entry of GET /3/configuration/languages.
type Language struct {
	Code        string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

// Label returns the English name, falling back to the code.
func (l Language) Label() string {
	if l.EnglishName != "" {
		return l.EnglishName
	}
	return l.Code
}
