package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrStoreClosed       = errors.New("store closed")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrCorruptTable      = errors.New("stored table is corrupt")
)
