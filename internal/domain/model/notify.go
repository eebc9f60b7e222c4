package model

import "cloud.google.com/go/civil"

// Reminder asks one athlete to submit today's rating.
type Reminder struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Day   civil.Date `json:"day"`
}

// CoachReport is the data handed to the report renderer for one coach.
type CoachReport struct {
	ID      string           `json:"id"`
	Coach   string           `json:"coach"`
	Day     civil.Date       `json:"day"`
	Summary TeamSummary      `json:"summary"`
	Flagged []WorkloadSample `json:"flagged"`
}

// DispatchResult counts the outcome of a fan-out of notifications.
type DispatchResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}
