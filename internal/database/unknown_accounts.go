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

	"github.com/tomtom215/fleetstats/internal/models"
)

// RecordUnknownAccount durably records an account name that could not be
// resolved. Idempotent: recording the same name twice leaves exactly one row
// (enforced by the primary key on account_name).
func (db *DB) RecordUnknownAccount(ctx context.Context, accountName string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO unknown_accounts (account_name, user_id) VALUES (?, NULL)
		ON CONFLICT (account_name) DO NOTHING
	`, accountName)
	if err != nil {
		return fmt.Errorf("failed to record unknown account: %w", err)
	}
	return nil
}

// GetUnknownAccount looks up a previously recorded unknown account name.
// Returns ErrNotFound when the name was never recorded.
func (db *DB) GetUnknownAccount(ctx context.Context, accountName string) (*models.UnknownAccount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	acc := &models.UnknownAccount{}
	var userID sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT account_name, user_id FROM unknown_accounts WHERE account_name = ?`,
		accountName).Scan(&acc.AccountName, &userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query unknown account: %w", err)
	}
	if userID.Valid {
		acc.UserID = &userID.Int64
	}
	return acc, nil
}

// SetUnknownAccountUser backfills the user mapping for an unknown account
// name. Subsequent imports resolve the name through this user instead of
// re-failing. Returns ErrNotFound when the name was never recorded.
func (db *DB) SetUnknownAccountUser(ctx context.Context, accountName string, userID int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE unknown_accounts SET user_id = ? WHERE account_name = ?`,
		userID, accountName)
	if err != nil {
		return fmt.Errorf("failed to set unknown account user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check unknown account update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnknownAccounts returns all recorded unknown account names, unmapped
// first, ordered by name.
func (db *DB) ListUnknownAccounts(ctx context.Context) ([]models.UnknownAccount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT account_name, user_id FROM unknown_accounts
		ORDER BY (user_id IS NOT NULL), account_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unknown accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.UnknownAccount
	for rows.Next() {
		var acc models.UnknownAccount
		var userID sql.NullInt64
		if err := rows.Scan(&acc.AccountName, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan unknown account: %w", err)
		}
		if userID.Valid {
			acc.UserID = &userID.Int64
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
