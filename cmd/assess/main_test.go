package main

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given the assess command", t, func() {
		convey.Convey("Then help should exit cleanly", func() {
			convey.So(run([]string{"-h"}), convey.ShouldEqual, 0)
		})

		convey.Convey("And bad flags should be usage errors", func() {
			convey.So(run([]string{"-format", "xml"}), convey.ShouldEqual, 2)
		})

		convey.Convey("And missing conditions should be usage errors", func() {
			convey.So(run([]string{"-air-temp", "30"}), convey.ShouldEqual, 2)
		})

		convey.Convey("And a complete local run should succeed", func() {
			args := []string{"-air-temp", "30", "-globe-temp", "35", "-humidity", "70", "-air-speed", "1", "-format", "csv"}
			convey.So(run(args), convey.ShouldEqual, 0)
		})
	})
}
