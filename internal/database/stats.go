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
)

// PeriodHasStats reports whether any user or corporation stats exist for the
// given (month, year, source). The aggregation engine uses this as its
// whole-period idempotence guard; the engine wraps the check and the writes
// in a keyed lock so two runs for the same key cannot both pass it.
func (db *DB) PeriodHasStats(ctx context.Context, month, year int, source string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM monthly_user_stats u
			 JOIN monthly_fleet_types ft ON ft.id = u.fleet_type_id
			 WHERE u.month = ? AND u.year = ? AND ft.source = ?)
			+
			(SELECT COUNT(*) FROM monthly_corp_stats c
			 JOIN monthly_fleet_types ft ON ft.id = c.fleet_type_id
			 WHERE c.month = ? AND c.year = ? AND ft.source = ?)
	`, month, year, source, month, year, source).Scan(&count)
	if err != nil {
		return false, queryFailed("period_has_stats", fmt.Errorf("failed to check period stats: %w", err))
	}
	return count > 0, nil
}

// IncrementUserAndCorpStats applies one logical increment: it adds delta to
// the user's total for (month, year, fleet type) and mirrors the same delta
// into the corporation's total. Both rows are created on first reference.
//
// Atomicity: the pair is applied in a single transaction, so both rows change
// or neither does. Each call is one read-modify-write cycle; duplicate-key
// races between concurrent workers surface as ErrDuplicateKey, which callers
// treat as a tolerated skipped row rather than a fatal error.
func (db *DB) IncrementUserAndCorpStats(ctx context.Context, userID, corporationID int64, month, year int, fleetTypeID, delta int64) error {
	if delta <= 0 {
		return fmt.Errorf("delta must be positive, got %d", delta)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := incrementUserStatTx(ctx, tx, userID, corporationID, month, year, fleetTypeID, delta); err != nil {
		return err
	}
	if err := incrementCorpStatTx(ctx, tx, corporationID, month, year, fleetTypeID, delta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if IsDuplicateKey(err) {
			return fmt.Errorf("%w: user %d period %d/%d type %d", ErrDuplicateKey, userID, month, year, fleetTypeID)
		}
		return queryFailed("increment_stats", fmt.Errorf("failed to commit stat increment: %w", err))
	}
	return nil
}

func incrementUserStatTx(ctx context.Context, tx *sql.Tx, userID, corporationID int64, month, year int, fleetTypeID, delta int64) error {
	var current int64
	err := tx.QueryRowContext(ctx, `
		SELECT total_fats FROM monthly_user_stats
		WHERE user_id = ? AND month = ? AND year = ? AND fleet_type_id = ?
	`, userID, month, year, fleetTypeID).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO monthly_user_stats (user_id, corporation_id, month, year, fleet_type_id, total_fats)
			VALUES (?, ?, ?, ?, ?, ?)
		`, userID, corporationID, month, year, fleetTypeID, delta)
		if err != nil {
			if IsDuplicateKey(err) {
				return fmt.Errorf("%w: user stat (%d, %d/%d, %d)", ErrDuplicateKey, userID, month, year, fleetTypeID)
			}
			return fmt.Errorf("failed to insert user stat: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read user stat: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE monthly_user_stats SET total_fats = ?
			WHERE user_id = ? AND month = ? AND year = ? AND fleet_type_id = ?
		`, current+delta, userID, month, year, fleetTypeID)
		if err != nil {
			return fmt.Errorf("failed to update user stat: %w", err)
		}
	}
	return nil
}

func incrementCorpStatTx(ctx context.Context, tx *sql.Tx, corporationID int64, month, year int, fleetTypeID, delta int64) error {
	var current int64
	err := tx.QueryRowContext(ctx, `
		SELECT total_fats FROM monthly_corp_stats
		WHERE corporation_id = ? AND month = ? AND year = ? AND fleet_type_id = ?
	`, corporationID, month, year, fleetTypeID).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO monthly_corp_stats (corporation_id, month, year, fleet_type_id, total_fats)
			VALUES (?, ?, ?, ?, ?)
		`, corporationID, month, year, fleetTypeID, delta)
		if err != nil {
			if IsDuplicateKey(err) {
				return fmt.Errorf("%w: corp stat (%d, %d/%d, %d)", ErrDuplicateKey, corporationID, month, year, fleetTypeID)
			}
			return fmt.Errorf("failed to insert corp stat: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read corp stat: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE monthly_corp_stats SET total_fats = ?
			WHERE corporation_id = ? AND month = ? AND year = ? AND fleet_type_id = ?
		`, current+delta, corporationID, month, year, fleetTypeID)
		if err != nil {
			return fmt.Errorf("failed to update corp stat: %w", err)
		}
	}
	return nil
}

// IncrementCreatorStat adds delta organized-fleet credits for a creator in
// one period under one fleet type. Single transaction per call, same
// duplicate-tolerant contract as IncrementUserAndCorpStats.
func (db *DB) IncrementCreatorStat(ctx context.Context, creatorID int64, month, year int, fleetTypeID, delta int64) error {
	if delta <= 0 {
		return fmt.Errorf("delta must be positive, got %d", delta)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	var current int64
	err = tx.QueryRowContext(ctx, `
		SELECT total_created FROM monthly_creator_stats
		WHERE creator_id = ? AND month = ? AND year = ? AND fleet_type_id = ?
	`, creatorID, month, year, fleetTypeID).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO monthly_creator_stats (creator_id, month, year, fleet_type_id, total_created)
			VALUES (?, ?, ?, ?, ?)
		`, creatorID, month, year, fleetTypeID, delta)
		if err != nil {
			if IsDuplicateKey(err) {
				return fmt.Errorf("%w: creator stat (%d, %d/%d, %d)", ErrDuplicateKey, creatorID, month, year, fleetTypeID)
			}
			return fmt.Errorf("failed to insert creator stat: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read creator stat: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE monthly_creator_stats SET total_created = ?
			WHERE creator_id = ? AND month = ? AND year = ? AND fleet_type_id = ?
		`, current+delta, creatorID, month, year, fleetTypeID)
		if err != nil {
			return fmt.Errorf("failed to update creator stat: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return queryFailed("increment_creator_stat", fmt.Errorf("failed to commit creator stat increment: %w", err))
	}
	return nil
}

// ClearPeriod deletes all rows in the four stats tables for one (month,
// year). Irreversible; both parameters are required by the API layer.
func (db *DB) ClearPeriod(ctx context.Context, month, year int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	for _, stmt := range []string{
		`DELETE FROM monthly_corp_stats WHERE month = ? AND year = ?`,
		`DELETE FROM monthly_user_stats WHERE month = ? AND year = ?`,
		`DELETE FROM monthly_creator_stats WHERE month = ? AND year = ?`,
		`DELETE FROM monthly_fleet_types WHERE month = ? AND year = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, month, year); err != nil {
			return fmt.Errorf("failed to clear period %d/%d: %w", month, year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return queryFailed("clear_period", fmt.Errorf("failed to commit clear period: %w", err))
	}
	return nil
}

func rollbackQuietly(tx *sql.Tx) {
	// Rollback after Commit returns ErrTxDone, which is expected.
	_ = tx.Rollback()
}
