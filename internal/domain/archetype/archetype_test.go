package archetype_test

import (
	"errors"
	"testing"

	"github.com/okian/heatcheck/internal/domain/archetype"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the default archetype table", t, func() {
		table := archetype.Default()

		Convey("Then it should hold the four archetypes in fixed order", func() {
			So(table.Len(), ShouldEqual, 4)
			names := []string{}
			for _, a := range table.All() {
				names = append(names, a.Name)
			}
			So(names, ShouldResemble, []string{
				"Hit-Up Forward", "Wide-Running Forwards", "Adjustables", "Outside Backs",
			})
		})

		Convey("And Outside Backs should carry the lower velocity sensitivity", func() {
			a, ok := table.Lookup("Outside Backs")
			So(ok, ShouldBeTrue)
			So(a.WeightKg, ShouldEqual, 100.0)
			So(a.HeightM, ShouldEqual, 1.90)
			So(a.VO2Rate, ShouldEqual, 23.5)
			So(a.VelocitySensitivity, ShouldEqual, 1.4)
		})

		Convey("And mutating the returned slice should not affect the table", func() {
			rows := table.All()
			rows[0].WeightKg = 1
			So(table.At(0).WeightKg, ShouldEqual, 122.0)
		})
	})
}

func TestNewTable(t *testing.T) {
	Convey("Given custom archetype rows", t, func() {
		valid := archetype.PlayerArchetype{Name: "Halfback", WeightKg: 85, HeightM: 1.78, VO2Rate: 26}

		Convey("When the rows are valid", func() {
			table, err := archetype.New([]archetype.PlayerArchetype{valid})

			Convey("Then the table should be built", func() {
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 1)
				_, ok := table.Lookup("Halfback")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the rows are invalid", func() {
			cases := map[string][]archetype.PlayerArchetype{
				"empty":     nil,
				"no name":   {{Name: " ", WeightKg: 80, HeightM: 1.8, VO2Rate: 25}},
				"weight":    {{Name: "A", WeightKg: 0, HeightM: 1.8, VO2Rate: 25}},
				"height":    {{Name: "A", WeightKg: 80, HeightM: -1, VO2Rate: 25}},
				"vo2":       {{Name: "A", WeightKg: 80, HeightM: 1.8, VO2Rate: 0}},
				"duplicate": {valid, valid},
			}
			for name, rows := range cases {
				Convey("Then "+name+" should be rejected", func() {
					_, err := archetype.New(rows)
					So(err, ShouldNotBeNil)
					So(errors.Is(err, archetype.ErrInvalidArchetype), ShouldBeTrue)
				})
			}
		})
	})
}
