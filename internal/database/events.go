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

// InsertFatEvent stores one internal-log attendance event. Used by the event
// sync and by tests.
func (db *DB) InsertFatEvent(ctx context.Context, ev *models.FatEvent) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO fat_events (id, character_id, creator_user_id, link_type, created)
		VALUES (?, ?, ?, ?, ?)
	`, ev.ID, ev.CharacterID, ev.CreatorUserID, ev.LinkType, ev.Created)
	if err != nil {
		if IsDuplicateKey(err) {
			return fmt.Errorf("%w: fat event %d", ErrDuplicateKey, ev.ID)
		}
		return fmt.Errorf("failed to insert fat event: %w", err)
	}
	return nil
}

// ListFatEventsForPeriod returns all internal-log events created in the given
// calendar month, in event-ID order.
func (db *DB) ListFatEventsForPeriod(ctx context.Context, month, year int) ([]models.FatEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, character_id, creator_user_id, link_type, created
		FROM fat_events
		WHERE EXTRACT(month FROM created) = ? AND EXTRACT(year FROM created) = ?
		ORDER BY id
	`, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query fat events: %w", err)
	}
	defer rows.Close()

	var events []models.FatEvent
	for rows.Next() {
		var ev models.FatEvent
		var linkType sql.NullString
		if err := rows.Scan(&ev.ID, &ev.CharacterID, &ev.CreatorUserID, &linkType, &ev.Created); err != nil {
			return nil, fmt.Errorf("failed to scan fat event: %w", err)
		}
		if linkType.Valid {
			v := linkType.String
			ev.LinkType = &v
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DistinctLinkTypesForPeriod returns the distinct non-null link
// classifications seen in the period. The aggregation engine pre-creates a
// fleet type for each before processing any event.
func (db *DB) DistinctLinkTypesForPeriod(ctx context.Context, month, year int) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT link_type
		FROM fat_events
		WHERE link_type IS NOT NULL
		  AND EXTRACT(month FROM created) = ? AND EXTRACT(year FROM created) = ?
		ORDER BY link_type
	`, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query link types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan link type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
