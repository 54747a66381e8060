package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrQueueFull   = errors.New("persistence queue full")
	ErrQueueClosed = errors.New("persistence queue closed")
)
