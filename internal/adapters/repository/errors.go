package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("batch not found")
	ErrPersistence    = errors.New("persistence failure")
	ErrDuplicateBatch = errors.New("batch already stored")
	ErrUnknownDriver  = errors.New("unknown store driver")
)
