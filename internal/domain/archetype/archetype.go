// Package archetype holds the immutable table of player archetypes the heat
// balance engine evaluates.
package archetype

import (
	"fmt"
	"strings"
)

// PlayerArchetype is a positional body profile.
type PlayerArchetype struct {
	Name     string  `json:"name" koanf:"name"`
	WeightKg float64 `json:"weight_kg" koanf:"weight_kg"`
	HeightM  float64 `json:"height_m" koanf:"height_m"`
	// VO2Rate is the activity oxygen uptake in mL·kg⁻¹·min⁻¹.
	VO2Rate float64 `json:"vo2_rate" koanf:"vo2_rate"`
	// VelocitySensitivity is carried with the profile but no formula reads it.
	VelocitySensitivity float64 `json:"velocity_sensitivity" koanf:"velocity_sensitivity"`
}

// Table is an ordered, read-only set of archetypes. The zero value is empty.
type Table struct {
	rows  []PlayerArchetype
	index map[string]int
}

var defaultRows = []PlayerArchetype{
	{Name: "Hit-Up Forward", WeightKg: 122.0, HeightM: 1.94, VO2Rate: 24.8, VelocitySensitivity: 1.5},
	{Name: "Wide-Running Forwards", WeightKg: 115.0, HeightM: 1.90, VO2Rate: 25.3, VelocitySensitivity: 1.5},
	{Name: "Adjustables", WeightKg: 85.0, HeightM: 1.80, VO2Rate: 25.8, VelocitySensitivity: 1.5},
	{Name: "Outside Backs", WeightKg: 100.0, HeightM: 1.90, VO2Rate: 23.5, VelocitySensitivity: 1.4},
}

// Default returns the four rugby league archetypes.
func Default() Table {
	t, err := New(defaultRows)
	if err != nil {
		panic(err) // static data
	}
	return t
}

// New validates rows and builds a Table that owns a private copy of them.
func New(rows []PlayerArchetype) (Table, error) {
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("%w: table is empty", ErrInvalidArchetype)
	}
	t := Table{
		rows:  make([]PlayerArchetype, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	for i, r := range rows {
		name := strings.TrimSpace(r.Name)
		switch {
		case name == "":
			return Table{}, fmt.Errorf("%w: row %d has no name", ErrInvalidArchetype, i)
		case !(r.WeightKg > 0):
			return Table{}, fmt.Errorf("%w: %q weight_kg must be > 0", ErrInvalidArchetype, name)
		case !(r.HeightM > 0):
			return Table{}, fmt.Errorf("%w: %q height_m must be > 0", ErrInvalidArchetype, name)
		case !(r.VO2Rate > 0):
			return Table{}, fmt.Errorf("%w: %q vo2_rate must be > 0", ErrInvalidArchetype, name)
		}
		if _, dup := t.index[name]; dup {
			return Table{}, fmt.Errorf("%w: duplicate name %q", ErrInvalidArchetype, name)
		}
		r.Name = name
		t.rows[i] = r
		t.index[name] = i
	}
	return t, nil
}

// All returns the archetypes in table order. The slice is a copy.
func (t Table) All() []PlayerArchetype {
	out := make([]PlayerArchetype, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of archetypes.
func (t Table) Len() int { return len(t.rows) }

// At returns the i-th archetype.
func (t Table) At(i int) PlayerArchetype { return t.rows[i] }

// Lookup finds an archetype by exact name.
func (t Table) Lookup(name string) (PlayerArchetype, bool) {
	i, ok := t.index[name]
	if !ok {
		return PlayerArchetype{}, false
	}
	return t.rows[i], true
}
