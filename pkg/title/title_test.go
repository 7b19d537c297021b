package title

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Matrix", "the matrix"},
		{"  Amélie  ", "amelie"},
		{"Léon:  The Professional", "leon: the professional"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("The Avengers", "AVEN"))
	assert.True(t, Contains("Amélie", "ameli"))
	assert.False(t, Contains("Titanic", "matrix"))
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Matrix", "matrix"},
		{"Léon: The Professional", "leon professional"},
		{"Fast & Furious", "fast and furious"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"Schindler's List", "schindlers list"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, clean(tt.in))
		})
	}
}

func TestBest(t *testing.T) {
	candidates := []string{"The Matrix", "Toy Story", "Toy Story 2", "Inception"}

	m := Best("matrix", candidates)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, "The Matrix", m.Title)
	assert.Equal(t, ConfidenceHigh, m.Confidence)

	m = Best("toy story 2", candidates)
	assert.Equal(t, "Toy Story 2", m.Title)

	m = Best("incepshun", candidates)
	assert.Equal(t, "Inception", m.Title)
	assert.NotEqual(t, ConfidenceNone, m.Confidence)

	m = Best("zzzzzz", candidates)
	assert.Equal(t, -1, m.Index)
	assert.Equal(t, ConfidenceNone, m.Confidence)

	m = Best("", candidates)
	assert.Equal(t, -1, m.Index)

	m = Best("matrix", nil)
	assert.Equal(t, -1, m.Index)
}

func TestConfidence_String(t *testing.T) {
	assert.Equal(t, "high", ConfidenceHigh.String())
	assert.Equal(t, "medium", ConfidenceMedium.String())
	assert.Equal(t, "low", ConfidenceLow.String())
	assert.Equal(t, "none", ConfidenceNone.String())
}
