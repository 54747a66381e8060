package clock_test

import (
	"testing"
	"time"

	"github.com/okian/heatcheck/internal/domain/clock"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClock(t *testing.T) {
	Convey("Given a fixed clock", t, func() {
		instant := time.Date(2026, time.January, 15, 3, 30, 0, 0, time.UTC)
		c := clock.Fixed(instant)

		Convey("Then Now should always return the same instant", func() {
			So(c.Now(), ShouldEqual, instant)
			So(c.Now(), ShouldEqual, c.Now())
		})

		Convey("And Format should render Sydney daylight time", func() {
			// 03:30 UTC in January is 14:30 AEDT (UTC+11).
			So(clock.Format(c.Now(), clock.Sydney()), ShouldEqual, "2026-01-15 14:30:00")
		})

		Convey("And a nil location should fall back to Sydney", func() {
			So(clock.Format(c.Now(), nil), ShouldEqual, "2026-01-15 14:30:00")
		})

		Convey("And winter instants should use standard time", func() {
			winter := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
			So(clock.Format(winter, clock.Sydney()), ShouldEqual, "2026-07-01 10:00:00")
		})
	})

	Convey("Given zone names", t, func() {
		loc, err := clock.LoadZone("")
		So(err, ShouldBeNil)
		So(loc.String(), ShouldEqual, clock.DefaultZone)

		loc, err = clock.LoadZone("Australia/Perth")
		So(err, ShouldBeNil)
		So(loc.String(), ShouldEqual, "Australia/Perth")

		_, err = clock.LoadZone("Mars/Olympus")
		So(err, ShouldNotBeNil)
	})

	Convey("Given a clock func", t, func() {
		instant := time.Unix(0, 0)
		So(clock.Func(func() time.Time { return instant }).Now(), ShouldEqual, instant)
		So(clock.System().Now().IsZero(), ShouldBeFalse)
	})
}
