// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package models

// The identity graph is stored as flat keyed tables synced from the host
// auth system: characters, ownerships, user profiles, corporations and
// alliances. Resolution is done via explicit lookups, not object traversal.

// Character is a game character as known to the auth system. Corporation
// and alliance fields are the character's current affiliation snapshot.
type Character struct {
	CharacterID     int64   `json:"character_id"`
	CharacterName   string  `json:"character_name"`
	CorporationID   int64   `json:"corporation_id"`
	CorporationName string  `json:"corporation_name"`
	AllianceID      *int64  `json:"alliance_id,omitempty"`
	AllianceName    *string `json:"alliance_name,omitempty"`
}

// User is an authenticated account owning one or more characters.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CharacterOwnership links a character to its owning user.
type CharacterOwnership struct {
	CharacterID int64 `json:"character_id"`
	UserID      int64 `json:"user_id"`
}

// UserProfile designates a user's main character. MainCharacterID is nil
// when the user has not picked a main.
type UserProfile struct {
	UserID          int64  `json:"user_id"`
	MainCharacterID *int64 `json:"main_character_id,omitempty"`
}

// Corporation is a player corporation; AllianceID is nil for corporations
// outside any alliance.
type Corporation struct {
	CorporationID   int64  `json:"corporation_id"`
	CorporationName string `json:"corporation_name"`
	Ticker          string `json:"ticker"`
	MemberCount     int64  `json:"member_count"`
	AllianceID      *int64 `json:"alliance_id,omitempty"`
}

// Alliance is a player alliance.
type Alliance struct {
	AllianceID   int64  `json:"alliance_id"`
	AllianceName string `json:"alliance_name"`
	Ticker       string `json:"ticker"`
}
