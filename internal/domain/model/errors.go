package model

import "errors"

var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrUnknownRiskState = errors.New("unknown risk state")
)
