// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package database

import (
	"context"
	"fmt"
)

// createTables creates the stats tables owned by the aggregation engine and
// the identity reference tables synced from the host auth system.
//
// DuckDB doesn't support auto-increment with PRIMARY KEY, so row IDs for
// monthly_fleet_types are managed manually (COALESCE(MAX(id),0)+1 under the
// registry mutex).
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	statements := []string{
		// Stats tables. total_fats/total_created accumulate via increment,
		// never decrease, and are only deleted by an explicit clear-period.
		`CREATE TABLE IF NOT EXISTS monthly_fleet_types (
			id BIGINT PRIMARY KEY,
			name VARCHAR NOT NULL,
			source VARCHAR NOT NULL,
			month INTEGER NOT NULL,
			year INTEGER NOT NULL,
			UNIQUE (name, source, month, year)
		)`,
		`CREATE TABLE IF NOT EXISTS monthly_user_stats (
			user_id BIGINT NOT NULL,
			corporation_id BIGINT NOT NULL,
			month INTEGER NOT NULL,
			year INTEGER NOT NULL,
			fleet_type_id BIGINT NOT NULL,
			total_fats BIGINT NOT NULL CHECK (total_fats >= 0),
			UNIQUE (user_id, month, year, fleet_type_id)
		)`,
		`CREATE TABLE IF NOT EXISTS monthly_corp_stats (
			corporation_id BIGINT NOT NULL,
			month INTEGER NOT NULL,
			year INTEGER NOT NULL,
			fleet_type_id BIGINT NOT NULL,
			total_fats BIGINT NOT NULL CHECK (total_fats >= 0),
			UNIQUE (corporation_id, month, year, fleet_type_id)
		)`,
		`CREATE TABLE IF NOT EXISTS monthly_creator_stats (
			creator_id BIGINT NOT NULL,
			month INTEGER NOT NULL,
			year INTEGER NOT NULL,
			fleet_type_id BIGINT NOT NULL,
			total_created BIGINT NOT NULL CHECK (total_created >= 0),
			UNIQUE (creator_id, month, year, fleet_type_id)
		)`,
		`CREATE TABLE IF NOT EXISTS unknown_accounts (
			account_name VARCHAR PRIMARY KEY,
			user_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS csv_column_mappings (
			column_name VARCHAR PRIMARY KEY,
			mapped_to VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS ignored_csv_columns (
			column_name VARCHAR PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS fleet_type_limits (
			name VARCHAR PRIMARY KEY,
			monthly_limit BIGINT NOT NULL
		)`,

		// Identity reference tables (flat keyed arena, resolved via explicit
		// joins). Synced from the host auth system; read-only to the engine.
		`CREATE TABLE IF NOT EXISTS characters (
			character_id BIGINT PRIMARY KEY,
			character_name VARCHAR NOT NULL,
			corporation_id BIGINT NOT NULL,
			corporation_name VARCHAR NOT NULL,
			alliance_id BIGINT,
			alliance_name VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username VARCHAR NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS character_ownerships (
			character_id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id BIGINT PRIMARY KEY,
			main_character_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS corporations (
			corporation_id BIGINT PRIMARY KEY,
			corporation_name VARCHAR NOT NULL,
			ticker VARCHAR NOT NULL,
			member_count BIGINT NOT NULL DEFAULT 0,
			alliance_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS alliances (
			alliance_id BIGINT PRIMARY KEY,
			alliance_name VARCHAR NOT NULL,
			ticker VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fat_events (
			id BIGINT PRIMARY KEY,
			character_id BIGINT NOT NULL,
			creator_user_id BIGINT NOT NULL,
			link_type VARCHAR,
			created TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_user_stats_period ON monthly_user_stats (year, month)`,
		`CREATE INDEX IF NOT EXISTS idx_corp_stats_period ON monthly_corp_stats (year, month)`,
		`CREATE INDEX IF NOT EXISTS idx_creator_stats_period ON monthly_creator_stats (year, month)`,
		`CREATE INDEX IF NOT EXISTS idx_fleet_types_period ON monthly_fleet_types (year, month, source)`,
		`CREATE INDEX IF NOT EXISTS idx_characters_name ON characters (character_name)`,
		`CREATE INDEX IF NOT EXISTS idx_fat_events_created ON fat_events (created)`,
	}

	for _, stmt := range indexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
