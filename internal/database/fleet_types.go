// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/fleetstats/internal/models"
)

// fleetTypeMutex serializes fleet-type creation so only one record is created
// per (name, source, month, year) even under concurrent aggregation.
var fleetTypeMutex sync.Mutex

// GetOrCreateFleetType atomically retrieves or creates a canonical fleet-type
// record for one period. Existing records are never mutated.
func (db *DB) GetOrCreateFleetType(ctx context.Context, name, source string, month, year int) (*models.MonthlyFleetType, error) {
	fleetTypeMutex.Lock()
	defer fleetTypeMutex.Unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	existing, err := db.getFleetTypeLocked(ctx, name, source, month, year)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// DuckDB doesn't support auto-increment with PRIMARY KEY, so row IDs are
	// managed manually under the mutex.
	var nextID int64
	err = db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM monthly_fleet_types`).Scan(&nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next fleet type ID: %w", err)
	}

	ft := &models.MonthlyFleetType{
		ID:     nextID,
		Name:   name,
		Source: source,
		Month:  month,
		Year:   year,
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO monthly_fleet_types (id, name, source, month, year)
		VALUES (?, ?, ?, ?, ?)
	`, ft.ID, ft.Name, ft.Source, ft.Month, ft.Year)
	if err != nil {
		if IsDuplicateKey(err) {
			// Lost a race with another process writing the same file; re-read.
			return db.getFleetTypeLocked(ctx, name, source, month, year)
		}
		return nil, fmt.Errorf("failed to insert fleet type: %w", err)
	}

	return ft, nil
}

// getFleetTypeLocked looks up a fleet type by its unique key. Caller must
// hold fleetTypeMutex.
func (db *DB) getFleetTypeLocked(ctx context.Context, name, source string, month, year int) (*models.MonthlyFleetType, error) {
	ft := &models.MonthlyFleetType{}
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, source, month, year
		FROM monthly_fleet_types
		WHERE name = ? AND source = ? AND month = ? AND year = ?
	`, name, source, month, year).Scan(&ft.ID, &ft.Name, &ft.Source, &ft.Month, &ft.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query fleet type: %w", err)
	}
	return ft, nil
}

// ListFleetTypesForPeriod returns all fleet types registered for a period and
// source, ordered by name.
func (db *DB) ListFleetTypesForPeriod(ctx context.Context, source string, month, year int) ([]models.MonthlyFleetType, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, source, month, year
		FROM monthly_fleet_types
		WHERE source = ? AND month = ? AND year = ?
		ORDER BY name
	`, source, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query fleet types: %w", err)
	}
	defer rows.Close()

	var types []models.MonthlyFleetType
	for rows.Next() {
		var ft models.MonthlyFleetType
		if err := rows.Scan(&ft.ID, &ft.Name, &ft.Source, &ft.Month, &ft.Year); err != nil {
			return nil, fmt.Errorf("failed to scan fleet type: %w", err)
		}
		types = append(types, ft)
	}
	return types, rows.Err()
}

// SetFleetTypeLimit inserts or replaces the advisory monthly cap for a fleet
// type name.
func (db *DB) SetFleetTypeLimit(ctx context.Context, name string, limit int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO fleet_type_limits (name, monthly_limit) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET monthly_limit = EXCLUDED.monthly_limit
	`, name, limit)
	if err != nil {
		return fmt.Errorf("failed to set fleet type limit: %w", err)
	}
	return nil
}

// GetFleetTypeLimits returns all advisory monthly caps keyed by fleet-type
// name.
func (db *DB) GetFleetTypeLimits(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, monthly_limit FROM fleet_type_limits`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fleet type limits: %w", err)
	}
	defer rows.Close()

	limits := make(map[string]int64)
	for rows.Next() {
		var name string
		var limit int64
		if err := rows.Scan(&name, &limit); err != nil {
			return nil, fmt.Errorf("failed to scan fleet type limit: %w", err)
		}
		limits[name] = limit
	}
	return limits, rows.Err()
}
