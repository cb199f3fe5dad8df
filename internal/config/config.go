// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package config loads and validates the service configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Fleetstats service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Alliance AllianceConfig `koanf:"alliance"`
	Rollup   RollupConfig   `koanf:"rollup"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file, or ":memory:" for tests.
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads limits DuckDB worker threads; 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// AllianceConfig identifies the alliance whose participation is tracked.
// Internal-log events whose resolved main is outside this alliance are
// skipped during aggregation.
type AllianceConfig struct {
	TargetID int64 `koanf:"target_id" validate:"required,gt=0"`
}

// RollupConfig holds query-layer defaults.
type RollupConfig struct {
	// DefaultWindow is the trailing month count for time series, inclusive
	// of the selected month.
	DefaultWindow int `koanf:"default_window" validate:"gte=1,lte=36"`
	// RollingWindow is the trailing rolling-mean width.
	RollingWindow int `koanf:"rolling_window" validate:"gte=1,lte=12"`
	// DefaultLeaderboardSize bounds top-N queries when the caller passes
	// no explicit limit.
	DefaultLeaderboardSize int `koanf:"default_leaderboard_size" validate:"gte=1,lte=500"`
}

// SecurityConfig holds rate limiting and CORS settings. Authentication is
// handled by the host application in front of this service.
type SecurityConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
