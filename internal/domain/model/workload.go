package model

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// RiskState classifies an acute:chronic ratio.
type RiskState int

const (
	// InsufficientData means no chronic load exists to compare against.
	InsufficientData RiskState = iota
	Normal
	Elevated
	VeryHigh
)

var riskStateNames = [...]string{"insufficient_data", "normal", "elevated", "very_high"}

func (s RiskState) String() string {
	if s < 0 || int(s) >= len(riskStateNames) {
		return fmt.Sprintf("RiskState(%d)", int(s))
	}
	return riskStateNames[s]
}

// ParseRiskState parses the wire name of a state.
func ParseRiskState(s string) (RiskState, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range riskStateNames {
		if name == s {
			return RiskState(i), nil
		}
	}
	return InsufficientData, fmt.Errorf("%w: %q", ErrUnknownRiskState, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s RiskState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RiskState) UnmarshalText(b []byte) error {
	v, err := ParseRiskState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Sample is a dated, normalized rating.
type Sample struct {
	Date  civil.Date `json:"date"`
	Value float64    `json:"value"`
}

// WorkloadSample is the acute:chronic computation for one athlete.
type WorkloadSample struct {
	Email      string     `json:"email"`
	LastName   string     `json:"lastName"`
	FirstName  string     `json:"firstName"`
	Position   string     `json:"position"`
	Acute      float64    `json:"acute"`
	Chronic    float64    `json:"chronic"`
	Ratio      float64    `json:"ratio"`
	Latest     float64    `json:"latest"`
	LatestDate civil.Date `json:"latestDate"`
	Sessions   int        `json:"sessions"`
	State      RiskState  `json:"state"`
}
