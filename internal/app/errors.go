package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrNoStore           = errors.New("no store configured")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrBusy              = errors.New("write queue full")
)
