package heat_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/heatcheck/internal/domain/heat"
	"github.com/okian/heatcheck/internal/domain/model"
)

func TestClassify(t *testing.T) {
	Convey("Given male thresholds", t, func() {
		cases := map[float64]model.Label{
			300: model.LabelDelay,
			251: model.LabelDelay,
			250: model.LabelCaution,
			201: model.LabelCaution,
			200: model.LabelCooling,
			151: model.LabelCooling,
			150: model.LabelNone,
			0:   model.LabelNone,
			-20: model.LabelNone,
		}
		for hsi, want := range cases {
			So(heat.Classify(hsi, "Male"), ShouldEqual, want)
			So(heat.Classify(hsi, "MALE"), ShouldEqual, want)
		}
	})

	Convey("Given female thresholds", t, func() {
		cases := map[float64]model.Label{
			226: model.LabelDelay,
			225: model.LabelCaution,
			181: model.LabelCaution,
			180: model.LabelCooling,
			136: model.LabelCooling,
			135: model.LabelNone,
		}
		for hsi, want := range cases {
			So(heat.Classify(hsi, "Female"), ShouldEqual, want)
		}
	})

	Convey("Given an unrecognised or empty gender", t, func() {
		Convey("Then the female table should apply", func() {
			So(heat.Classify(226, ""), ShouldEqual, model.LabelDelay)
			So(heat.Classify(226, "unknown"), ShouldEqual, model.LabelDelay)
			So(heat.Classify(226, "Male"), ShouldEqual, model.LabelCaution)
		})
	})
}

func TestThresholdsFor(t *testing.T) {
	Convey("Given the threshold tables", t, func() {
		male := heat.ThresholdsFor("male")
		female := heat.ThresholdsFor("Female")

		Convey("Then they should be ordered highest first", func() {
			So(male, ShouldHaveLength, 3)
			So(male[0].Above, ShouldEqual, 250)
			So(male[2].Above, ShouldEqual, 150)
			So(female[0].Above, ShouldEqual, 225)
			So(female[2].Above, ShouldEqual, 135)
		})

		Convey("Then callers should not be able to alter the tables", func() {
			male[0].Above = 1
			So(heat.ThresholdsFor("male")[0].Above, ShouldEqual, 250)
			So(heat.Classify(100, "male"), ShouldEqual, model.LabelNone)
		})
	})
}
