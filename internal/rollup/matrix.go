// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package rollup

import (
	"context"
	"fmt"
	"sort"
)

// MatrixRow is one main's zero-filled totals, aligned to Matrix.FleetTypes.
type MatrixRow struct {
	UserID        int64   `json:"user_id"`
	MainName      string  `json:"main_name"`
	CorporationID int64   `json:"corporation_id"`
	Totals        []int64 `json:"totals"`
	Total         int64   `json:"total"`
}

// Matrix is the main-by-fleet-type breakdown for one period. Fleet types
// with no activity at all are dropped from the columns; every remaining cell
// is zero-filled.
type Matrix struct {
	FleetTypes []string    `json:"fleet_types"`
	Rows       []MatrixRow `json:"rows"`

	// Limits holds the advisory per-type monthly caps that have been
	// configured, keyed by fleet-type name. Purely informational; totals
	// are never clamped.
	Limits map[string]int64 `json:"limits,omitempty"`
}

// ParticipationMatrix returns the per-main, per-fleet-type totals for one
// period as a dense matrix, with rows sorted by main name and columns by
// fleet-type name.
func (s *Service) ParticipationMatrix(ctx context.Context, month, year int, sources []string) (*Matrix, error) {
	totals, err := s.db.UserFleetTypeTotals(ctx, month, year, sources)
	if err != nil {
		return nil, fmt.Errorf("user fleet type totals for %d/%d: %w", month, year, err)
	}

	typeSet := make(map[string]bool)
	for _, t := range totals {
		if t.TotalFats > 0 {
			typeSet[t.FleetType] = true
		}
	}
	fleetTypes := make([]string, 0, len(typeSet))
	for name := range typeSet {
		fleetTypes = append(fleetTypes, name)
	}
	sort.Strings(fleetTypes)

	colIndex := make(map[string]int, len(fleetTypes))
	for i, name := range fleetTypes {
		colIndex[name] = i
	}

	rowIndex := make(map[int64]int)
	m := &Matrix{FleetTypes: fleetTypes}
	for _, t := range totals {
		idx, ok := rowIndex[t.UserID]
		if !ok {
			idx = len(m.Rows)
			rowIndex[t.UserID] = idx
			m.Rows = append(m.Rows, MatrixRow{
				UserID:        t.UserID,
				MainName:      t.MainName,
				CorporationID: t.CorporationID,
				Totals:        make([]int64, len(fleetTypes)),
			})
		}
		col, ok := colIndex[t.FleetType]
		if !ok {
			continue
		}
		m.Rows[idx].Totals[col] += t.TotalFats
		m.Rows[idx].Total += t.TotalFats
	}

	sort.Slice(m.Rows, func(i, j int) bool {
		return m.Rows[i].MainName < m.Rows[j].MainName
	})

	limits, err := s.db.GetFleetTypeLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("fleet type limits: %w", err)
	}
	if len(limits) > 0 {
		m.Limits = make(map[string]int64)
		for _, name := range fleetTypes {
			if limit, ok := limits[name]; ok {
				m.Limits[name] = limit
			}
		}
		if len(m.Limits) == 0 {
			m.Limits = nil
		}
	}
	return m, nil
}
