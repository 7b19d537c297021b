package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxNameLength = 40
	MinAge        = 1
	MaxAge        = 120
)

// Form is a profile edit as entered by the user. Age is the raw text so
// malformed input can be reported rather than silently zeroed. Nil
// pointers leave the field unchanged.
type Form struct {
	Name       *string
	Age        *string
	SafeMode   *bool
	Region     *string
	Languages  []string
	ProfilePic *string
}

// Validate returns every problem with the form.
func (f Form) Validate() []string {
	var problems []string

	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		switch {
		case name == "":
			problems = append(problems, "name is required")
		case utf8.RuneCountInString(name) > MaxNameLength:
			problems = append(problems, fmt.Sprintf("name must be at most %d characters", MaxNameLength))
		}
	}

	if f.Age != nil {
		if _, err := parseAge(*f.Age); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if f.Region != nil && !validRegion(strings.TrimSpace(*f.Region)) {
		problems = append(problems, "region must be a two-letter country code")
	}

	if f.Languages != nil && len(normalizeLanguages(f.Languages)) == 0 {
		problems = append(problems, "at least one language is required")
	}

	return problems
}

func (f Form) apply(p *Profile) error {
	if problems := f.Validate(); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	if f.Name != nil {
		p.Name = strings.TrimSpace(*f.Name)
	}
	if f.Age != nil {
		p.Age, _ = parseAge(*f.Age)
	}
	if f.SafeMode != nil {
		p.SafeMode = *f.SafeMode
	}
	if f.Region != nil {
		p.Region = strings.ToUpper(strings.TrimSpace(*f.Region))
	}
	if f.Languages != nil {
		p.Language = normalizeLanguages(f.Languages)
	}
	if f.ProfilePic != nil {
		p.ProfilePic = *f.ProfilePic
	}
	return nil
}

func parseAge(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("age is required")
	}
	age, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("age must be a whole number")
	}
	if age < MinAge || age > MaxAge {
		return 0, fmt.Errorf("age must be between %d and %d", MinAge, MaxAge)
	}
	return age, nil
}

func validRegion(s string) bool {
	if utf8.RuneCountInString(s) != 2 {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
