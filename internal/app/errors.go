package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrPersistenceDisabled = errors.New("persistence disabled")
	ErrNotStarted          = errors.New("service not started")
)
