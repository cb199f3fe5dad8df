// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package rollup answers the read-side questions: relative participation per
// corporation, zero-filled monthly series with rolling averages, top-N
// leaderboards, the main-by-fleet-type matrix, and organizer breakdowns.
//
// All queries are computed on demand from the monthly stats tables; nothing
// here writes.
package rollup

import (
	"fmt"

	"github.com/tomtom215/fleetstats/internal/config"
	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/models"
)

// Service computes rollups over the aggregated monthly stats.
type Service struct {
	db  *database.DB
	cfg config.RollupConfig
}

// New creates a rollup service.
func New(db *database.DB, cfg config.RollupConfig) *Service {
	return &Service{db: db, cfg: cfg}
}

// ResolveSources maps an API source filter to the set of stat sources to
// include. Empty and "all" include both.
func ResolveSources(filter string) ([]string, error) {
	switch filter {
	case "", "all":
		return []string{models.SourceInternalLog, models.SourceExternalReport}, nil
	case models.SourceInternalLog:
		return []string{models.SourceInternalLog}, nil
	case models.SourceExternalReport:
		return []string{models.SourceExternalReport}, nil
	default:
		return nil, fmt.Errorf("unknown source filter %q", filter)
	}
}

// monthSerial maps (month, year) onto a single month axis so period ranges
// can be expressed as integer intervals.
func monthSerial(month, year int) int {
	return year*12 + month - 1
}

// serialMonth is the inverse of monthSerial.
func serialMonth(serial int) (month, year int) {
	return serial%12 + 1, serial / 12
}
