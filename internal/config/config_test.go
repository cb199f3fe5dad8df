// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// The alliance ID has no sensible default and must come from the
	// environment or a config file.
	t.Setenv("ALLIANCE_ID", "99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8311 {
		t.Errorf("expected default port 8311, got %d", cfg.Server.Port)
	}
	if cfg.Alliance.TargetID != 99 {
		t.Errorf("expected alliance ID 99, got %d", cfg.Alliance.TargetID)
	}
	if cfg.Rollup.DefaultWindow != 6 || cfg.Rollup.RollingWindow != 3 {
		t.Errorf("unexpected rollup defaults: %+v", cfg.Rollup)
	}
	if cfg.Security.RateLimitWindow != time.Minute {
		t.Errorf("unexpected rate limit window: %v", cfg.Security.RateLimitWindow)
	}
}

func TestLoadMissingAllianceIDFails(t *testing.T) {
	if _, err := Load(); err == nil {
		t.Error("expected validation failure without an alliance ID")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ALLIANCE_ID", "99")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DUCKDB_PATH", "/tmp/test.duckdb")
	t.Setenv("ROLLUP_WINDOW", "12")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("expected overridden database path, got %s", cfg.Database.Path)
	}
	if cfg.Rollup.DefaultWindow != 12 {
		t.Errorf("expected rollup window 12, got %d", cfg.Rollup.DefaultWindow)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("alliance:\n  target_id: 42\nserver:\n  port: 7000\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Alliance.TargetID != 42 || cfg.Server.Port != 7000 {
		t.Errorf("config file values not applied: %+v", cfg)
	}

	// Env still wins over the file.
	t.Setenv("HTTP_PORT", "7100")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("expected env override 7100, got %d", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.Alliance.TargetID = 99
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected failure for port 0")
	}

	cfg = defaultConfig()
	cfg.Alliance.TargetID = 99
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected failure for bad log level")
	}
}
