package types_test

import (
	"math"
	"testing"

	"github.com/okian/heatcheck/internal/domain/model"
	types "github.com/okian/heatcheck/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromResult(t *testing.T) {
	Convey("Given an assessment result", t, func() {
		r := model.AssessmentResult{
			RecordType:   "Game Day",
			Club:         "Storm",
			Venue:        "AAMI Park",
			Gender:       "Male",
			Player:       "Outside Backs",
			HSI:          185,
			Assessment:   model.LabelCooling,
			SweatRateLHr: 1.78,
			CreatedAt:    "2026-03-07 15:15:30",
		}

		Convey("When converting it to a row", func() {
			row := types.FromResult(r)

			Convey("Then values and metadata should carry over", func() {
				So(row.Club, ShouldEqual, "Storm")
				So(row.Player, ShouldEqual, "Outside Backs")
				So(*row.HSI, ShouldEqual, 185)
				So(*row.SweatRateLHr, ShouldEqual, 1.78)
				So(row.Assessment, ShouldEqual, string(model.LabelCooling))
				So(row.Warning, ShouldBeEmpty)
			})
		})

		Convey("When the result is degenerate", func() {
			r.Degenerate = true
			r.HSI = math.NaN()
			r.SweatRateLHr = math.NaN()
			r.Assessment = ""
			rows := types.FromResults([]model.AssessmentResult{r, r})

			Convey("Then values should be absent and a warning set", func() {
				So(rows[0].HSI, ShouldBeNil)
				So(rows[0].SweatRateLHr, ShouldBeNil)
				So(rows[0].Warning, ShouldContainSubstring, "Outside Backs")
				So(types.Warnings(rows), ShouldHaveLength, 2)
			})
		})
	})
}
