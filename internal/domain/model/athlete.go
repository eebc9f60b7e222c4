// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Identity holds the descriptive fields of one athlete row.
// Email is the row key; the remaining fields are stored as first submitted.
type Identity struct {
	Email            string `json:"email"`
	Last4            string `json:"last4"`
	LastName         string `json:"lastName"`
	FirstName        string `json:"firstName"`
	Position         string `json:"position"`
	SummerAttendance string `json:"summerAttendance"`
}

// Key returns the lookup key for an email: trimmed and lower-cased.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Key returns the row key of the identity.
func (i Identity) Key() string { return Key(i.Email) }

// Submission is one daily form entry. Intensity is kept verbatim because the
// form input is uncontrolled.
type Submission struct {
	Identity
	Intensity string `json:"intensityLevel"`
}

// Validate checks the fields a row cannot be stored without.
func (s Submission) Validate() error {
	required := []struct {
		name, value string
	}{
		{"email", s.Email},
		{"lastName", s.LastName},
		{"firstName", s.FirstName},
		{"position", s.Position},
		{"intensityLevel", s.Intensity},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if !strings.Contains(s.Email, "@") {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, s.Email)
	}
	return nil
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (s Submission) Trimmed() Submission {
	return Submission{
		Identity: Identity{
			Email:            strings.TrimSpace(s.Email),
			Last4:            strings.TrimSpace(s.Last4),
			LastName:         strings.TrimSpace(s.LastName),
			FirstName:        strings.TrimSpace(s.FirstName),
			Position:         strings.TrimSpace(s.Position),
			SummerAttendance: strings.TrimSpace(s.SummerAttendance),
		},
		Intensity: strings.TrimSpace(s.Intensity),
	}
}
