package cli

import "errors"

// Sentinel kinds for CLI errors.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUsage        = errors.New("usage")
	ErrRemote       = errors.New("remote assessment failed")
)
