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

// CreatorBreakdown is one organizer's created-fleet counts for a period,
// split by fleet type.
type CreatorBreakdown struct {
	CreatorID    int64            `json:"creator_id"`
	Username     string           `json:"username"`
	TotalCreated int64            `json:"total_created"`
	ByFleetType  map[string]int64 `json:"by_fleet_type"`
}

// Creators returns the per-organizer breakdown for one period, ordered by
// total created descending with username ascending as the tiebreak. Creator
// stats come from the internal log only, so there is no source filter.
func (s *Service) Creators(ctx context.Context, month, year int) ([]CreatorBreakdown, error) {
	totals, err := s.db.CreatorTotals(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("creator totals for %d/%d: %w", month, year, err)
	}

	index := make(map[int64]int)
	var out []CreatorBreakdown
	for _, t := range totals {
		idx, ok := index[t.CreatorID]
		if !ok {
			idx = len(out)
			index[t.CreatorID] = idx
			out = append(out, CreatorBreakdown{
				CreatorID:   t.CreatorID,
				Username:    t.Username,
				ByFleetType: make(map[string]int64),
			})
		}
		out[idx].ByFleetType[t.FleetType] += t.TotalCreated
		out[idx].TotalCreated += t.TotalCreated
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCreated != out[j].TotalCreated {
			return out[i].TotalCreated > out[j].TotalCreated
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}
