// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package rollup

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/fleetstats/internal/models"
)

// Leaderboard returns the top-n mains by total fats for a period, ordered by
// total descending with name ascending as the tiebreak. n <= 0 uses the
// configured default size.
func (s *Service) Leaderboard(ctx context.Context, month, year, n int, sources []string) ([]models.UserTotal, error) {
	if n <= 0 {
		n = s.cfg.DefaultLeaderboardSize
	}

	totals, err := s.db.UserTotals(ctx, month, year, sources)
	if err != nil {
		return nil, fmt.Errorf("user totals for %d/%d: %w", month, year, err)
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalFats != totals[j].TotalFats {
			return totals[i].TotalFats > totals[j].TotalFats
		}
		return totals[i].MainName < totals[j].MainName
	})

	if len(totals) > n {
		totals = totals[:n]
	}
	return totals, nil
}
