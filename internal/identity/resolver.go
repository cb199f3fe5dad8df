// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package identity maps raw account or character names from report rows to
// canonical (user, main character, corporation) triples.
//
// Unresolved is a normal terminal outcome, not an error: the row is excluded
// from aggregation, the name is durably recorded for operator backfill, and
// the caller tallies it in the ingestion summary.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/logging"
	"github.com/tomtom215/fleetstats/internal/models"
)

// Store is the subset of database operations the resolver needs.
// Satisfied by *database.DB.
type Store interface {
	FindCharacterByName(ctx context.Context, name string) (*models.Character, error)
	FindOwnershipByCharacter(ctx context.Context, characterID int64) (*models.CharacterOwnership, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	GetCharacter(ctx context.Context, characterID int64) (*models.Character, error)
	GetUnknownAccount(ctx context.Context, accountName string) (*models.UnknownAccount, error)
	RecordUnknownAccount(ctx context.Context, accountName string) error
}

// Identity is a resolved (user, main character, corporation) triple. The
// corporation is the main character's CURRENT corporation at resolution time,
// not the corporation at time of activity. Callers needing event-time corp
// attribution (the internal-log pipeline) read it from the event's character
// instead.
type Identity struct {
	UserID        int64
	MainCharacter *models.Character
	CorporationID int64
}

// Resolver resolves free-text names against the identity reference tables
// and the unknown-account backfill store.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve maps a free-text account or character name to a canonical identity.
//
// The second return value reports whether the name resolved. When it is
// false the name has been durably (and idempotently) recorded as an unknown
// account and the caller should skip the row.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Identity, bool, error) {
	ch, err := r.store.FindCharacterByName(ctx, name)
	switch {
	case err == nil:
		return r.resolveKnownCharacter(ctx, ch)
	case errors.Is(err, database.ErrNotFound):
		return r.resolveUnknownName(ctx, name)
	default:
		return nil, false, fmt.Errorf("character lookup for %q: %w", name, err)
	}
}

// resolveKnownCharacter walks character -> ownership -> user -> profile ->
// main character. A missing main-character link falls back to the looked-up
// character acting as its own main; a missing ownership record means the
// character is unclaimed and the name goes through the unknown-account path.
func (r *Resolver) resolveKnownCharacter(ctx context.Context, ch *models.Character) (*Identity, bool, error) {
	ownership, err := r.store.FindOwnershipByCharacter(ctx, ch.CharacterID)
	if errors.Is(err, database.ErrNotFound) {
		return r.resolveUnknownName(ctx, ch.CharacterName)
	}
	if err != nil {
		return nil, false, fmt.Errorf("ownership lookup for character %d: %w", ch.CharacterID, err)
	}

	main := ch
	profile, err := r.store.GetUserProfile(ctx, ownership.UserID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		// No profile: the character stands in as its own main.
	case err != nil:
		return nil, false, fmt.Errorf("profile lookup for user %d: %w", ownership.UserID, err)
	case profile.MainCharacterID != nil:
		mainChar, err := r.store.GetCharacter(ctx, *profile.MainCharacterID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			logging.Warn().
				Int64("user_id", ownership.UserID).
				Int64("main_character_id", *profile.MainCharacterID).
				Msg("Profile points at missing main character, using looked-up character")
		case err != nil:
			return nil, false, fmt.Errorf("main character lookup for user %d: %w", ownership.UserID, err)
		default:
			main = mainChar
		}
	}

	return &Identity{
		UserID:        ownership.UserID,
		MainCharacter: main,
		CorporationID: main.CorporationID,
	}, true, nil
}

// resolveUnknownName consults the unknown-account store. A prior manual
// mapping to a user resolves through that user's main character; otherwise
// the name is recorded (idempotently) and reported unresolved.
func (r *Resolver) resolveUnknownName(ctx context.Context, name string) (*Identity, bool, error) {
	acc, err := r.store.GetUnknownAccount(ctx, name)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, false, fmt.Errorf("unknown account lookup for %q: %w", name, err)
	}

	if acc == nil || acc.UserID == nil {
		if err := r.store.RecordUnknownAccount(ctx, name); err != nil {
			return nil, false, fmt.Errorf("recording unknown account %q: %w", name, err)
		}
		return nil, false, nil
	}

	identity, ok, err := r.resolveBackfilledUser(ctx, *acc.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("backfilled resolution for %q: %w", name, err)
	}
	if !ok {
		logging.Warn().
			Str("account_name", name).
			Int64("user_id", *acc.UserID).
			Msg("Backfilled unknown account has no resolvable main character")
		return nil, false, nil
	}
	return identity, true, nil
}

// resolveBackfilledUser resolves an operator-mapped user through that user's
// designated main character.
func (r *Resolver) resolveBackfilledUser(ctx context.Context, userID int64) (*Identity, bool, error) {
	profile, err := r.store.GetUserProfile(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if profile.MainCharacterID == nil {
		return nil, false, nil
	}

	main, err := r.store.GetCharacter(ctx, *profile.MainCharacterID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &Identity{
		UserID:        userID,
		MainCharacter: main,
		CorporationID: main.CorporationID,
	}, true, nil
}
