package worker

import "errors"

// ErrStopped answers a job handed to a worker that was already stopping.
var ErrStopped = errors.New("worker stopped")
