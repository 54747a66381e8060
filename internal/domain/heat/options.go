package heat

import (
	"time"

	"github.com/okian/heatcheck/internal/domain/clock"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock sets the time source used for CreatedAt.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLocation sets the civil zone CreatedAt is rendered in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}
