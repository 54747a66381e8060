package worker

import "errors"

// ErrAbandoned marks a batch that was still queued when the pool was
// force-stopped.
var ErrAbandoned = errors.New("batch abandoned at shutdown")
