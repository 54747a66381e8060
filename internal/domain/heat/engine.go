// Package heat implements the heat-balance model that turns field conditions
// into a Heat Strain Index, a sweat-rate estimate and an action tier for each
// player archetype.
package heat

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/clock"
	"github.com/okian/heatcheck/internal/domain/model"
)

const sweatRateDecimals = 2

// Engine evaluates the model over an immutable archetype table. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	table archetype.Table
	clock clock.Clock
	loc   *time.Location
}

// New creates an engine over table.
func New(table archetype.Table, opts ...Option) *Engine {
	e := &Engine{
		table: table,
		clock: clock.System(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loc == nil {
		e.loc = clock.Sydney()
	}
	return e
}

// Table returns the archetype table the engine evaluates.
func (e *Engine) Table() archetype.Table { return e.table }

// Location returns the zone CreatedAt is rendered in.
func (e *Engine) Location() *time.Location { return e.loc }

// Assess returns one result per archetype in table order. All rows share the
// input metadata and a single timestamp. Degenerate rows carry NaN values and
// no label.
func (e *Engine) Assess(env model.EnvironmentInput) []model.AssessmentResult {
	createdAt := clock.Format(e.clock.Now(), e.loc)

	out := make([]model.AssessmentResult, 0, e.table.Len())
	for _, p := range e.table.All() {
		b := finish(balance(p, env))
		r := model.AssessmentResult{
			RecordType:   env.RecordType,
			Club:         env.Club,
			Venue:        env.Venue,
			Gender:       env.Gender,
			Player:       p.Name,
			HSI:          b.HSI,
			SweatRateLHr: b.SweatRateLHr,
			CreatedAt:    createdAt,
			Degenerate:   b.Degenerate,
		}
		if !r.Degenerate {
			r.Assessment = Classify(r.HSI, env.Gender)
		}
		out = append(out, r)
	}
	return out
}

// Explain returns the full stage breakdown for every archetype.
func (e *Engine) Explain(env model.EnvironmentInput) []Breakdown {
	out := make([]Breakdown, 0, e.table.Len())
	for _, p := range e.table.All() {
		out = append(out, finish(balance(p, env)))
	}
	return out
}

// finish applies rounding and the degenerate check.
func finish(b Breakdown) Breakdown {
	hsi := math.RoundToEven(b.Wettedness * 100)
	sweat := scalar.RoundEven(b.SweatGHr/1000, sweatRateDecimals)

	if !(b.EskMaxKg >= minEvapCapacity) || !finite(hsi) || !finite(sweat) {
		b.Degenerate = true
		b.HSI = math.NaN()
		b.SweatRateLHr = math.NaN()
		return b
	}
	b.HSI = hsi
	b.SweatRateLHr = sweat
	return b
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
