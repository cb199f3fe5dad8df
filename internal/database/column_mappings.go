// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/fleetstats/internal/models"
)

// GetColumnMappings returns all persisted header-to-fleet-type mappings keyed
// by column name. Unmapped but previously seen headers have a nil value.
func (db *DB) GetColumnMappings(ctx context.Context) (map[string]*string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT column_name, mapped_to FROM csv_column_mappings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query column mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[string]*string)
	for rows.Next() {
		var name string
		var mappedTo sql.NullString
		if err := rows.Scan(&name, &mappedTo); err != nil {
			return nil, fmt.Errorf("failed to scan column mapping: %w", err)
		}
		if mappedTo.Valid {
			v := mappedTo.String
			mappings[name] = &v
		} else {
			mappings[name] = nil
		}
	}
	return mappings, rows.Err()
}

// SaveColumnMapping persists one header-to-fleet-type mapping, replacing any
// prior decision for the same header. A nil mappedTo records the header as
// seen but undecided.
func (db *DB) SaveColumnMapping(ctx context.Context, columnName string, mappedTo *string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO csv_column_mappings (column_name, mapped_to) VALUES (?, ?)
		ON CONFLICT (column_name) DO UPDATE SET mapped_to = EXCLUDED.mapped_to
	`, columnName, mappedTo)
	if err != nil {
		return fmt.Errorf("failed to save column mapping: %w", err)
	}
	return nil
}

// ListColumnMappings returns all persisted mappings ordered by column name.
func (db *DB) ListColumnMappings(ctx context.Context) ([]models.CSVColumnMapping, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT column_name, mapped_to FROM csv_column_mappings ORDER BY column_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query column mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.CSVColumnMapping
	for rows.Next() {
		var m models.CSVColumnMapping
		var mappedTo sql.NullString
		if err := rows.Scan(&m.ColumnName, &mappedTo); err != nil {
			return nil, fmt.Errorf("failed to scan column mapping: %w", err)
		}
		if mappedTo.Valid {
			v := mappedTo.String
			m.MappedTo = &v
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// AddIgnoredColumn adds a header to the persisted ignore set. Idempotent.
func (db *DB) AddIgnoredColumn(ctx context.Context, columnName string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ignored_csv_columns (column_name) VALUES (?)
		ON CONFLICT (column_name) DO NOTHING
	`, columnName)
	if err != nil {
		return fmt.Errorf("failed to add ignored column: %w", err)
	}
	return nil
}

// GetIgnoredColumns returns the persisted set of headers excluded from
// mapping prompts.
func (db *DB) GetIgnoredColumns(ctx context.Context) (map[string]bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT column_name FROM ignored_csv_columns`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ignored columns: %w", err)
	}
	defer rows.Close()

	ignored := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan ignored column: %w", err)
		}
		ignored[name] = true
	}
	return ignored, rows.Err()
}
