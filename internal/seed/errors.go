package seed

import "errors"

// Sentinel errors returned by the HTTP client.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrBackpressure     = errors.New("server busy")
)
