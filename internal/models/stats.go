// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package models defines the entities shared between the database layer,
// the aggregation engine, and the API handlers.
package models

import "time"

// Stat sources. Each monthly fleet type belongs to exactly one source and
// the whole-period idempotence guard is keyed on (month, year, source).
const (
	SourceInternalLog    = "internal-log"
	SourceExternalReport = "external-report"
)

// UnknownFleetType is the sentinel type used for internal-log events that
// carry no link classification.
const UnknownFleetType = "Unknown"

// MonthlyFleetType is a canonical fleet-type record for one period.
// Created lazily the first time a row needs it; existing rows are never
// mutated.
type MonthlyFleetType struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`
}

// MonthlyUserStats accumulates fleet-participation credits for one user under
// one fleet type in one period. total_fats only ever increases.
type MonthlyUserStats struct {
	UserID        int64 `json:"user_id"`
	CorporationID int64 `json:"corporation_id"`
	Month         int   `json:"month"`
	Year          int   `json:"year"`
	FleetTypeID   int64 `json:"fleet_type_id"`
	TotalFats     int64 `json:"total_fats"`
}

// MonthlyCorpStats mirrors MonthlyUserStats at corporation level. For every
// (month, year, fleet_type) it equals the sum of the user stats of that
// corporation's members.
type MonthlyCorpStats struct {
	CorporationID int64 `json:"corporation_id"`
	Month         int   `json:"month"`
	Year          int   `json:"year"`
	FleetTypeID   int64 `json:"fleet_type_id"`
	TotalFats     int64 `json:"total_fats"`
}

// MonthlyCreatorStats counts fleets organized (not attended) per user.
type MonthlyCreatorStats struct {
	CreatorID    int64 `json:"creator_id"`
	Month        int   `json:"month"`
	Year         int   `json:"year"`
	FleetTypeID  int64 `json:"fleet_type_id"`
	TotalCreated int64 `json:"total_created"`
}

// UnknownAccount records an external-report account name that could not be
// resolved. Once an operator backfills UserID, later imports resolve through
// this mapping instead of re-failing.
type UnknownAccount struct {
	AccountName string `json:"account_name"`
	UserID      *int64 `json:"user_id,omitempty"`
}

// CSVColumnMapping is a persisted header-to-fleet-type mapping, reusable
// across import sessions. MappedTo is nil for headers the operator has seen
// but not yet mapped.
type CSVColumnMapping struct {
	ColumnName string  `json:"column_name"`
	MappedTo   *string `json:"mapped_to,omitempty"`
}

// FleetTypeLimit is an advisory per-type monthly cap used by the rollup layer
// to annotate over-cap totals. It never blocks ingestion.
type FleetTypeLimit struct {
	Name  string `json:"name"`
	Limit int64  `json:"limit"`
}

// FatEvent is one internal-log attendance event: a character was credited on
// a fleet organized by a user, optionally classified by link type.
type FatEvent struct {
	ID            int64     `json:"id"`
	CharacterID   int64     `json:"character_id"`
	CreatorUserID int64     `json:"creator_user_id"`
	LinkType      *string   `json:"link_type,omitempty"`
	Created       time.Time `json:"created"`
}
