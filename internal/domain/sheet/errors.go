package sheet

import "errors"

var (
	ErrMalformedDate      = errors.New("malformed date column")
	ErrDuplicateColumn    = errors.New("duplicate column")
	ErrMissingEmailColumn = errors.New("missing email column")
)
