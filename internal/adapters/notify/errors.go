package notify

import "errors"

// ErrDispatch marks a job the transport did not accept.
var ErrDispatch = errors.New("dispatch failed")
