// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package models

// CorpTotal is one corporation's summed fats for a period.
type CorpTotal struct {
	CorporationID   int64  `json:"corporation_id"`
	CorporationName string `json:"corporation_name"`
	TotalFats       int64  `json:"total_fats"`
}

// UserFleetTypeTotal is one resolved main's total under one fleet type for a
// period. MainName falls back to the username when the user has no resolved
// main character.
type UserFleetTypeTotal struct {
	UserID        int64  `json:"user_id"`
	MainName      string `json:"main_name"`
	CorporationID int64  `json:"corporation_id"`
	FleetType     string `json:"fleet_type"`
	TotalFats     int64  `json:"total_fats"`
}

// UserTotal is one resolved main's summed fats across fleet types, used by
// the leaderboard.
type UserTotal struct {
	UserID    int64  `json:"user_id"`
	MainName  string `json:"main_name"`
	TotalFats int64  `json:"total_fats"`
}

// CorpMonthTotal is one corporation's summed fats for one calendar month,
// used to build time series.
type CorpMonthTotal struct {
	CorporationID   int64  `json:"corporation_id"`
	CorporationName string `json:"corporation_name"`
	Month           int    `json:"month"`
	Year            int    `json:"year"`
	TotalFats       int64  `json:"total_fats"`
}

// CreatorTotal is one organizer's created-fleet count under one fleet type
// for a period.
type CreatorTotal struct {
	CreatorID    int64  `json:"creator_id"`
	Username     string `json:"username"`
	FleetType    string `json:"fleet_type"`
	TotalCreated int64  `json:"total_created"`
}
