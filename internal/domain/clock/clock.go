// Package clock supplies the time source and civil zone used to stamp
// assessment results.
package clock

import (
	"fmt"
	"time"
	_ "time/tzdata" // Australia/Sydney must resolve on hosts without zoneinfo
)

// Layout is the civil timestamp format of assessment rows.
const Layout = "2006-01-02 15:04:05"

// DefaultZone is the civil zone results are stamped in.
const DefaultZone = "Australia/Sydney"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

// Func adapts a function to Clock.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time { return f() }

// LoadZone resolves an IANA zone name; empty means DefaultZone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return loc, nil
}

// Sydney returns the Australia/Sydney location.
func Sydney() *time.Location {
	loc, err := LoadZone(DefaultZone)
	if err != nil {
		panic(err) // embedded tzdata
	}
	return loc
}

// Format renders t in loc using Layout.
func Format(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = Sydney()
	}
	return t.In(loc).Format(Layout)
}
