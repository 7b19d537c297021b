package profile

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidProfile indicates a profile edit failed validation.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrUnknownMood indicates a mood outside the supported set.
	ErrUnknownMood = errors.New("unknown mood")

	// ErrNoLanguages indicates an attempt to clear the language filter.
	ErrNoLanguages = errors.New("at least one language is required")
)

// ValidationError lists every problem found in a profile form.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid profile: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidProfile
}
