// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
	"time"
)

// Label is an action-recommendation tier.
type Label string

// Assessment tiers, highest risk first.
const (
	LabelDelay   Label = "Delay/Suspend Play"
	LabelCaution Label = "Caution: Extended breaks recommended"
	LabelCooling Label = "Cooling breaks recommended"
	LabelNone    Label = "No cooling breaks required"
)

// Recognised gender values. Anything that is not Male selects the female
// threshold table.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// IsMale reports whether gender case-insensitively equals "male".
func IsMale(gender string) bool {
	return strings.EqualFold(gender, GenderMale)
}

// EnvironmentInput is one set of field conditions plus echoed metadata.
type EnvironmentInput struct {
	AirTempC    float64 // dry-bulb air temperature
	GlobeTempC  float64 // black-globe temperature
	HumidityPct float64 // relative humidity, 0..100
	AirSpeedMS  float64 // measured air speed, m/s
	Gender      string
	RecordType  string
	Club        string
	Venue       string
}

// AssessmentResult is the outcome for one archetype.
type AssessmentResult struct {
	RecordType   string
	Club         string
	Venue        string
	Gender       string
	Player       string
	HSI          float64 // integral; NaN when Degenerate
	Assessment   Label   // empty when Degenerate
	SweatRateLHr float64 // two decimals; NaN when Degenerate
	CreatedAt    string  // civil time, clock.Layout
	Degenerate   bool
}

// Finite reports whether both derived values are usable numbers.
func (r AssessmentResult) Finite() bool {
	return !math.IsNaN(r.HSI) && !math.IsInf(r.HSI, 0) &&
		!math.IsNaN(r.SweatRateLHr) && !math.IsInf(r.SweatRateLHr, 0)
}

// Batch is one persisted result set.
type Batch struct {
	ID           string
	SubmissionID string
	Input        EnvironmentInput
	Results      []AssessmentResult
	ComputedAt   time.Time
}
