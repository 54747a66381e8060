package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/heatcheck/internal/domain/clock"
	"github.com/okian/heatcheck/internal/domain/model"
)

// Output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// Config holds one CLI invocation. The environmental values are kept as
// text until Input parses them.
type Config struct {
	AirTemp   string
	GlobeTemp string
	Humidity  string
	AirSpeed  string

	Gender     string
	RecordType string
	Club       string
	Venue      string

	Format       string        // table, csv or json
	URL          string        // remote server; empty runs the engine in-process
	SubmissionID string        // sent with remote requests
	Timezone     string        // local mode only
	Timeout      time.Duration // remote request timeout
	Verbose      bool

	// Clock overrides the time source in local mode.
	Clock clock.Clock
}

// Input parses and validates the environmental fields. All problems are
// reported together.
func (c Config) Input() (model.EnvironmentInput, error) {
	var errs []error
	num := func(name, text string) float64 {
		text = strings.TrimSpace(text)
		if text == "" {
			errs = append(errs, fmt.Errorf("%w: -%s is required", ErrInvalidInput, name))
			return 0
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: -%s %q is not a number", ErrInvalidInput, name, text))
			return 0
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: -%s must be finite", ErrInvalidInput, name))
			return 0
		}
		return v
	}

	in := model.EnvironmentInput{
		AirTempC:    num("air-temp", c.AirTemp),
		GlobeTempC:  num("globe-temp", c.GlobeTemp),
		HumidityPct: num("humidity", c.Humidity),
		AirSpeedMS:  num("air-speed", c.AirSpeed),
		Gender:      c.Gender,
		RecordType:  c.RecordType,
		Club:        c.Club,
		Venue:       c.Venue,
	}
	if in.HumidityPct < 0 || in.HumidityPct > 100 {
		errs = append(errs, fmt.Errorf("%w: -humidity must be between 0 and 100", ErrInvalidInput))
	}
	if in.AirSpeedMS < 0 {
		errs = append(errs, fmt.Errorf("%w: -air-speed must not be negative", ErrInvalidInput))
	}
	if len(errs) > 0 {
		return model.EnvironmentInput{}, errors.Join(errs...)
	}
	return in, nil
}
