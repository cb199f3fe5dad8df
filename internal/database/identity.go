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

// FindCharacterByName looks up a character by its exact name.
// Returns ErrNotFound when no character matches.
func (db *DB) FindCharacterByName(ctx context.Context, name string) (*models.Character, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT character_id, character_name, corporation_id, corporation_name,
		       alliance_id, alliance_name
		FROM characters
		WHERE character_name = ?
	`
	return db.scanCharacter(db.conn.QueryRowContext(ctx, query, name))
}

// GetCharacter looks up a character by ID. Returns ErrNotFound when absent.
func (db *DB) GetCharacter(ctx context.Context, characterID int64) (*models.Character, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT character_id, character_name, corporation_id, corporation_name,
		       alliance_id, alliance_name
		FROM characters
		WHERE character_id = ?
	`
	return db.scanCharacter(db.conn.QueryRowContext(ctx, query, characterID))
}

func (db *DB) scanCharacter(row *sql.Row) (*models.Character, error) {
	ch := &models.Character{}
	var allianceID sql.NullInt64
	var allianceName sql.NullString
	err := row.Scan(&ch.CharacterID, &ch.CharacterName, &ch.CorporationID,
		&ch.CorporationName, &allianceID, &allianceName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query character: %w", err)
	}
	if allianceID.Valid {
		ch.AllianceID = &allianceID.Int64
	}
	if allianceName.Valid {
		ch.AllianceName = &allianceName.String
	}
	return ch, nil
}

// FindOwnershipByCharacter returns the ownership record linking a character
// to its user. Returns ErrNotFound when the character is unclaimed.
func (db *DB) FindOwnershipByCharacter(ctx context.Context, characterID int64) (*models.CharacterOwnership, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	own := &models.CharacterOwnership{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT character_id, user_id FROM character_ownerships WHERE character_id = ?`,
		characterID).Scan(&own.CharacterID, &own.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query ownership: %w", err)
	}
	return own, nil
}

// GetUserProfile returns a user's profile. Returns ErrNotFound when the user
// has no profile row.
func (db *DB) GetUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	profile := &models.UserProfile{}
	var mainID sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, main_character_id FROM user_profiles WHERE user_id = ?`,
		userID).Scan(&profile.UserID, &mainID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user profile: %w", err)
	}
	if mainID.Valid {
		profile.MainCharacterID = &mainID.Int64
	}
	return profile, nil
}

// GetCorporation looks up a corporation by ID. Returns ErrNotFound when absent.
func (db *DB) GetCorporation(ctx context.Context, corporationID int64) (*models.Corporation, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	corp := &models.Corporation{}
	var allianceID sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT corporation_id, corporation_name, ticker, member_count, alliance_id
		 FROM corporations WHERE corporation_id = ?`,
		corporationID).Scan(&corp.CorporationID, &corp.CorporationName, &corp.Ticker,
		&corp.MemberCount, &allianceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query corporation: %w", err)
	}
	if allianceID.Valid {
		corp.AllianceID = &allianceID.Int64
	}
	return corp, nil
}

// GetAlliance looks up an alliance by ID. Returns ErrNotFound when absent.
func (db *DB) GetAlliance(ctx context.Context, allianceID int64) (*models.Alliance, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	a := &models.Alliance{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT alliance_id, alliance_name, ticker FROM alliances WHERE alliance_id = ?`,
		allianceID).Scan(&a.AllianceID, &a.AllianceName, &a.Ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query alliance: %w", err)
	}
	return a, nil
}

// CountActiveMains counts resolved main characters currently in the given
// corporation. This is a current-snapshot count, not a historical one: the
// relative-participation view divides by it deliberately.
func (db *DB) CountActiveMains(ctx context.Context, corporationID int64) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM user_profiles p
		JOIN characters c ON c.character_id = p.main_character_id
		WHERE c.corporation_id = ?
	`, corporationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active mains: %w", err)
	}
	return count, nil
}

// UpsertCharacter inserts or replaces a character's current affiliation
// snapshot. Used by the identity sync and by tests.
func (db *DB) UpsertCharacter(ctx context.Context, ch *models.Character) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO characters (character_id, character_name, corporation_id,
			corporation_name, alliance_id, alliance_name)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (character_id) DO UPDATE SET
			character_name = EXCLUDED.character_name,
			corporation_id = EXCLUDED.corporation_id,
			corporation_name = EXCLUDED.corporation_name,
			alliance_id = EXCLUDED.alliance_id,
			alliance_name = EXCLUDED.alliance_name
	`, ch.CharacterID, ch.CharacterName, ch.CorporationID, ch.CorporationName,
		ch.AllianceID, ch.AllianceName)
	if err != nil {
		return fmt.Errorf("failed to upsert character: %w", err)
	}
	return nil
}

// UpsertUser inserts or replaces a user.
func (db *DB) UpsertUser(ctx context.Context, u *models.User) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
	`, u.ID, u.Username)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser looks up a user by ID. Returns ErrNotFound when absent.
func (db *DB) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	u := &models.User{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE id = ?`, userID).Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// UpsertOwnership inserts or replaces a character-ownership link.
func (db *DB) UpsertOwnership(ctx context.Context, o *models.CharacterOwnership) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO character_ownerships (character_id, user_id) VALUES (?, ?)
		ON CONFLICT (character_id) DO UPDATE SET user_id = EXCLUDED.user_id
	`, o.CharacterID, o.UserID)
	if err != nil {
		return fmt.Errorf("failed to upsert ownership: %w", err)
	}
	return nil
}

// UpsertUserProfile inserts or replaces a user profile.
func (db *DB) UpsertUserProfile(ctx context.Context, p *models.UserProfile) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, main_character_id) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET main_character_id = EXCLUDED.main_character_id
	`, p.UserID, p.MainCharacterID)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return nil
}

// UpsertCorporation inserts or replaces a corporation.
func (db *DB) UpsertCorporation(ctx context.Context, c *models.Corporation) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO corporations (corporation_id, corporation_name, ticker, member_count, alliance_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (corporation_id) DO UPDATE SET
			corporation_name = EXCLUDED.corporation_name,
			ticker = EXCLUDED.ticker,
			member_count = EXCLUDED.member_count,
			alliance_id = EXCLUDED.alliance_id
	`, c.CorporationID, c.CorporationName, c.Ticker, c.MemberCount, c.AllianceID)
	if err != nil {
		return fmt.Errorf("failed to upsert corporation: %w", err)
	}
	return nil
}

// UpsertAlliance inserts or replaces an alliance.
func (db *DB) UpsertAlliance(ctx context.Context, a *models.Alliance) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO alliances (alliance_id, alliance_name, ticker) VALUES (?, ?, ?)
		ON CONFLICT (alliance_id) DO UPDATE SET
			alliance_name = EXCLUDED.alliance_name,
			ticker = EXCLUDED.ticker
	`, a.AllianceID, a.AllianceName, a.Ticker)
	if err != nil {
		return fmt.Errorf("failed to upsert alliance: %w", err)
	}
	return nil
}
