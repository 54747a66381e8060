package archetype

import "errors"

// ErrInvalidArchetype reports a malformed archetype table.
var ErrInvalidArchetype = errors.New("invalid archetype")
