// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package aggregate

import "time"

// Result is the summary of one aggregation run.
type Result struct {
	Source string `json:"source"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`

	// Processed counts rows or events whose identity resolved and that were
	// applied to the monthly totals.
	Processed int `json:"processed"`

	// Unresolved counts rows or events whose name could not be mapped to a
	// user. Each is recorded in the unknown-account store for backfill.
	Unresolved int `json:"unresolved"`

	// Skipped counts rows or events excluded for reasons other than
	// resolution: an empty identity cell, or an out-of-alliance main.
	Skipped int `json:"skipped"`

	// SkippedCells counts individual report cells dropped for being zero,
	// empty or non-numeric. External-report runs only.
	SkippedCells int `json:"skipped_cells,omitempty"`

	// Duplicates counts increments abandoned on a unique-constraint race.
	Duplicates int `json:"duplicates"`

	// CreatorCredits counts organizer credits applied. Internal-log runs
	// only.
	CreatorCredits int `json:"creator_credits,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
