package model

import "cloud.google.com/go/civil"

// WideRow is one athlete row with numeric ratings keyed by session date.
type WideRow struct {
	Identity
	Values       map[civil.Date]float64 `json:"values"`
	AverageValue Number                 `json:"averageValue"`
}

// Observation is one (athlete, date) cell of the long table.
type Observation struct {
	Position  string     `json:"position"`
	Email     string     `json:"email"`
	LastName  string     `json:"lastName"`
	FirstName string     `json:"firstName"`
	Date      civil.Date `json:"date"`
	Value     Number     `json:"value"`
}

// PositionDailyAverage is the mean rating of a position on one date.
type PositionDailyAverage struct {
	Position string     `json:"position"`
	Date     civil.Date `json:"date"`
	Mean     Number     `json:"mean"`
	Samples  int        `json:"samples"`
}

// PositionAverage is the mean of athlete averages within a position.
type PositionAverage struct {
	Position string `json:"position"`
	Mean     Number `json:"mean"`
	Athletes int    `json:"athletes"`
}

// AthleteAverage names an athlete and their overall average.
type AthleteAverage struct {
	Email     string  `json:"email"`
	LastName  string  `json:"lastName"`
	FirstName string  `json:"firstName"`
	Position  string  `json:"position"`
	Average   float64 `json:"average"`
}

// TeamSummary aggregates the table for coach reports.
type TeamSummary struct {
	TeamAverage    Number            `json:"teamAverage"`
	Athletes       int               `json:"athletes"`
	Sessions       int               `json:"sessions"`
	LatestSession  *civil.Date       `json:"latestSession,omitempty"`
	Positions      []PositionAverage `json:"positions"`
	Top            []AthleteAverage  `json:"top"`
	NeedsAttention []AthleteAverage  `json:"needsAttention"`
}
