package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/heatcheck/internal/adapters/http/api"
	service "github.com/okian/heatcheck/internal/app"
	"github.com/okian/heatcheck/internal/cli"
	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/clock"
	"github.com/okian/heatcheck/internal/domain/heat"
	"github.com/okian/heatcheck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

var frozen = time.Date(2026, time.February, 1, 6, 0, 0, 0, time.UTC)

func training() cli.Config {
	return cli.Config{
		AirTemp: "30", GlobeTemp: "35", Humidity: "70", AirSpeed: "1.0",
		Gender: "Male", RecordType: "Training", Club: "Broncos", Venue: "Suncorp Stadium",
		Format: cli.FormatTable,
		Clock:  clock.Fixed(frozen),
	}
}

func TestParseFlags(t *testing.T) {
	Convey("Given command-line arguments", t, func() {
		var out bytes.Buffer

		Convey("When only the conditions are given", func() {
			cfg, err := cli.ParseFlags([]string{"-air-temp", "30", "-globe-temp", "35", "-humidity", "70", "-air-speed", "1"}, &out)

			Convey("Then defaults should fill the rest", func() {
				So(err, ShouldBeNil)
				So(cfg.AirTemp, ShouldEqual, "30")
				So(cfg.Gender, ShouldEqual, "Male")
				So(cfg.RecordType, ShouldEqual, "Training")
				So(cfg.Format, ShouldEqual, cli.FormatTable)
				So(cfg.Timeout, ShouldEqual, 10*time.Second)
			})
		})

		Convey("When a URL with a trailing slash and an upper-case format are given", func() {
			cfg, err := cli.ParseFlags([]string{"-url", "http://localhost:9080/", "-format", "CSV"}, &out)
			So(err, ShouldBeNil)
			So(cfg.URL, ShouldEqual, "http://localhost:9080")
			So(cfg.Format, ShouldEqual, cli.FormatCSV)
		})

		Convey("When the format is unknown", func() {
			_, err := cli.ParseFlags([]string{"-format", "xml"}, &out)
			So(errors.Is(err, cli.ErrUsage), ShouldBeTrue)
		})

		Convey("When positional arguments are given", func() {
			_, err := cli.ParseFlags([]string{"extra"}, &out)
			So(errors.Is(err, cli.ErrUsage), ShouldBeTrue)
		})

		Convey("When help is requested", func() {
			_, err := cli.ParseFlags([]string{"-h"}, &out)
			So(errors.Is(err, cli.ErrUsage), ShouldBeTrue)
			So(out.String(), ShouldContainSubstring, "heatcheck assess")
			So(out.String(), ShouldContainSubstring, "-air-temp")
		})
	})
}

func TestConfigInput(t *testing.T) {
	Convey("Given a config with bad conditions", t, func() {
		cfg := training()
		cfg.AirTemp = "warm"
		cfg.GlobeTemp = ""
		cfg.Humidity = "140"
		cfg.AirSpeed = "Inf"

		_, err := cfg.Input()

		Convey("Then every problem should be reported as invalid input", func() {
			So(errors.Is(err, cli.ErrInvalidInput), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "-air-temp")
			So(err.Error(), ShouldContainSubstring, "-globe-temp is required")
			So(err.Error(), ShouldContainSubstring, "-humidity must be between 0 and 100")
			So(err.Error(), ShouldContainSubstring, "-air-speed must be finite")
		})
	})

	Convey("Given numeric text with padding", t, func() {
		cfg := training()
		cfg.AirTemp = " 30.5 "

		in, err := cfg.Input()
		So(err, ShouldBeNil)
		So(in.AirTempC, ShouldEqual, 30.5)
		So(in.Club, ShouldEqual, "Broncos")
	})
}

func TestRunLocal(t *testing.T) {
	Convey("Given the training scenario computed locally", t, func() {
		ctx := context.Background()
		cfg := training()
		var out bytes.Buffer

		Convey("When rendering a table", func() {
			So(cli.Run(ctx, cfg, &out), ShouldBeNil)
			s := out.String()

			Convey("Then the metadata and every archetype should be printed", func() {
				So(s, ShouldStartWith, "Training | Broncos | Suncorp Stadium | Male | 2026-02-01 17:00:00")
				So(s, ShouldContainSubstring, "PLAYER")
				So(s, ShouldContainSubstring, "Hit-Up Forward")
				So(s, ShouldContainSubstring, "2.32")
				So(s, ShouldContainSubstring, "Caution: Extended breaks recommended")
				So(s, ShouldContainSubstring, "Outside Backs")
				So(s, ShouldNotContainSubstring, "warning:")
			})
		})

		Convey("When rendering CSV", func() {
			cfg.Format = cli.FormatCSV
			So(cli.Run(ctx, cfg, &out), ShouldBeNil)

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			So(lines, ShouldHaveLength, 5)
			So(lines[0], ShouldStartWith, "record_type,club,venue,gender,player,hsi")
			So(lines[3], ShouldContainSubstring, "Adjustables,193,")
		})

		Convey("When rendering JSON", func() {
			cfg.Format = cli.FormatJSON
			So(cli.Run(ctx, cfg, &out), ShouldBeNil)

			var res cli.Result
			So(json.Unmarshal(out.Bytes(), &res), ShouldBeNil)
			So(res.Results, ShouldHaveLength, 4)
			So(*res.Results[1].HSI, ShouldEqual, 218)
			So(*res.Results[3].SweatRateLHr, ShouldEqual, 1.78)
			So(res.Persistence, ShouldBeNil)
		})

		Convey("When the timezone is Perth", func() {
			cfg.Timezone = "Australia/Perth"
			cfg.Format = cli.FormatJSON
			So(cli.Run(ctx, cfg, &out), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "2026-02-01 14:00:00")
		})

		Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus"
			So(errors.Is(cli.Run(ctx, cfg, &out), cli.ErrUsage), ShouldBeTrue)
		})

		Convey("When the conditions are degenerate", func() {
			cfg.AirTemp, cfg.GlobeTemp, cfg.Humidity, cfg.AirSpeed = "40", "40", "100", "1"
			So(cli.Run(ctx, cfg, &out), ShouldBeNil)

			So(out.String(), ShouldNotContainSubstring, "breaks")
			So(strings.Count(out.String(), "warning:"), ShouldEqual, 4)
		})
	})
}

func TestRunRemote(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx := context.Background()
		eng := heat.New(archetype.Default(), heat.WithClock(clock.Fixed(frozen)))
		svc := service.New(eng)
		So(svc.Start(ctx), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		Reset(func() {
			srv.Close()
			_ = svc.Stop(ctx)
		})

		cfg := training()
		cfg.URL = srv.URL
		cfg.Timeout = 5 * time.Second
		cfg.SubmissionID = "cli-1"
		var out bytes.Buffer

		Convey("When assessing through the server", func() {
			cfg.Format = cli.FormatJSON
			So(cli.Run(ctx, cfg, &out), ShouldBeNil)

			var res cli.Result
			So(json.Unmarshal(out.Bytes(), &res), ShouldBeNil)

			Convey("Then the server's rows and batch should be printed", func() {
				So(res.Results, ShouldHaveLength, 4)
				So(*res.Results[0].HSI, ShouldEqual, 218)
				So(res.Results[0].CreatedAt, ShouldEqual, "2026-02-01 17:00:00")
				So(res.BatchID, ShouldNotBeEmpty)
				So(res.Persistence, ShouldNotBeNil)
				So(res.Persistence.Status, ShouldEqual, service.PersistQueued)
			})
		})

		Convey("When rendering the remote result as a table", func() {
			So(cli.Run(ctx, cfg, &out), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "(queued)")
		})
	})

	Convey("Given a server that fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"internal_error","message":"boom"}`))
		}))
		Reset(srv.Close)

		cfg := training()
		cfg.URL = srv.URL
		cfg.Timeout = time.Second

		err := cli.Run(context.Background(), cfg, io.Discard)
		So(errors.Is(err, cli.ErrRemote), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "boom")
	})
}
