package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/okian/heatcheck/internal/domain/model"
)

// Environment variables read for flag defaults, typically from a .env file.
const (
	EnvURL      = "HEATCHECK_URL"
	EnvClub     = "HEATCHECK_CLUB"
	EnvVenue    = "HEATCHECK_VENUE"
	EnvTimezone = "HEATCHECK_TIMEZONE"
)

const defaultTimeout = 10 * time.Second

// ParseFlags parses args (without the program name) into a Config. Usage
// goes to out on -h or on a parse error.
func ParseFlags(args []string, out io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { ShowHelp(out, fs) }

	fs.StringVar(&cfg.AirTemp, "air-temp", "", "air temperature, °C")
	fs.StringVar(&cfg.GlobeTemp, "globe-temp", "", "black-globe temperature, °C")
	fs.StringVar(&cfg.Humidity, "humidity", "", "relative humidity, %")
	fs.StringVar(&cfg.AirSpeed, "air-speed", "", "air speed, m/s")
	fs.StringVar(&cfg.Gender, "gender", model.GenderMale, "Male or Female; anything else uses the female thresholds")
	fs.StringVar(&cfg.RecordType, "record-type", "Training", "Training or Game Day")
	fs.StringVar(&cfg.Club, "club", os.Getenv(EnvClub), "club name")
	fs.StringVar(&cfg.Venue, "venue", os.Getenv(EnvVenue), "venue name")
	fs.StringVar(&cfg.Format, "format", FormatTable, "output format: table, csv or json")
	fs.StringVar(&cfg.URL, "url", os.Getenv(EnvURL), "server base URL; empty computes locally")
	fs.StringVar(&cfg.SubmissionID, "submission-id", "", "idempotency id sent to the server")
	fs.StringVar(&cfg.Timezone, "timezone", os.Getenv(EnvTimezone), "civil timezone for created_at in local mode")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "remote request timeout")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "debug logging on stderr")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}

	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	switch cfg.Format {
	case FormatTable, FormatCSV, FormatJSON:
	default:
		return Config{}, fmt.Errorf("%w: unknown format %q", ErrUsage, cfg.Format)
	}
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	return cfg, nil
}

// ShowHelp prints usage information for the assess tool.
func ShowHelp(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(out, `heatcheck assess
================

Heat Strain Index and sweat rate for every player archetype.

Usage:
  assess -air-temp 30 -globe-temp 35 -humidity 70 -air-speed 1.0 [options]

Options:
`)
	fs.PrintDefaults()
	fmt.Fprintf(out, `
Defaults for -url, -club, -venue and -timezone are read from %s, %s,
%s and %s (a .env file in the working directory is loaded first).

Examples:
  # Compute locally and print a table
  assess -air-temp 30 -globe-temp 35 -humidity 70 -air-speed 1 -club Broncos -venue "Suncorp Stadium"

  # Ask a running server and keep the CSV
  assess -url http://localhost:9080 -format csv -air-temp 28 -globe-temp 33 -humidity 60 -air-speed 0.5 > session.csv
`, EnvURL, EnvClub, EnvVenue, EnvTimezone)
}
