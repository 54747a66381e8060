package config_test

import (
	"errors"
	"testing"

	"github.com/okian/heatcheck/internal/config"
	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Timezone, convey.ShouldEqual, "Australia/Sydney")
			convey.So(cfg.PersistEnabled, convey.ShouldBeTrue)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			convey.So(cfg.MaxListLimit, convey.ShouldEqual, 500)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the built-in archetype table should be used", func() {
			table, err := cfg.ArchetypeTable()
			convey.So(err, convey.ShouldBeNil)
			convey.So(table.Len(), convey.ShouldEqual, 4)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"unknown format":    func(c *config.Config) { c.LogFormat = "xml" },
			"unknown driver":    func(c *config.Config) { c.StoreDriver = "mongo" },
			"postgres sans dsn": func(c *config.Config) { c.StoreDriver = "postgres" },
			"bad timezone":      func(c *config.Config) { c.Timezone = "Mars/Olympus" },
			"zero workers":      func(c *config.Config) { c.WorkerCount = 0 },
			"zero queue":        func(c *config.Config) { c.QueueSize = 0 },
			"bad archetypes": func(c *config.Config) {
				c.Archetypes = []archetype.PlayerArchetype{{Name: "Ghost", WeightKg: 0, HeightM: 1.8, VO2Rate: 20}}
			},
		}
		for name, mutate := range cases {
			convey.Convey("Then "+name+" should be rejected", func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given postgres with persistence disabled", t, func() {
		cfg := config.New()
		cfg.StoreDriver = "postgres"
		cfg.PersistEnabled = false

		convey.Convey("Then a missing dsn should be accepted", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
