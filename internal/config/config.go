// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/clock"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone assessment timestamps are rendered in.
	Timezone string `koanf:"timezone"`

	// PersistEnabled turns batch persistence on or off.
	PersistEnabled bool `koanf:"persist_enabled"`

	// StoreDriver selects the store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the driver-specific data source name.
	StoreDSN string `koanf:"store_dsn"`

	// QueueSize bounds the in-memory persistence queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submission ids are remembered; 0 keeps all.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps GET /assessments?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// Archetypes replaces the built-in archetype table when non-empty.
	Archetypes []archetype.PlayerArchetype `koanf:"archetypes"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		Timezone:       clock.DefaultZone,
		PersistEnabled: true,
		StoreDriver:    "memory",
		QueueSize:      1024,
		WorkerCount:    2,
		DedupeSize:     10_000,
		MaxListLimit:   500,
	}
}

// ArchetypeTable returns the configured table, or the built-in one.
func (c *Config) ArchetypeTable() (archetype.Table, error) {
	if len(c.Archetypes) == 0 {
		return archetype.Default(), nil
	}
	t, err := archetype.New(c.Archetypes)
	if err != nil {
		return archetype.Table{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	switch strings.ToLower(c.StoreDriver) {
	case "memory", "sqlite":
	case "postgres":
		if c.PersistEnabled && c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store_driver %q must be memory, sqlite or postgres", ErrInvalidConfig, c.StoreDriver)
	}
	if _, err := clock.LoadZone(c.Timezone); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.QueueSize < 1 || c.WorkerCount < 1 || c.DedupeSize < 0 || c.MaxListLimit < 1 {
		return fmt.Errorf("%w: queue_size, worker_count and max_list_limit must be positive, dedupe_size non-negative", ErrInvalidConfig)
	}
	if _, err := c.ArchetypeTable(); err != nil {
		return err
	}
	return nil
}
