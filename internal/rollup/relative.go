// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package rollup

import (
	"context"
	"fmt"
)

// CorpParticipation is one corporation's absolute and per-capita totals for
// a period.
type CorpParticipation struct {
	CorporationID   int64  `json:"corporation_id"`
	CorporationName string `json:"corporation_name"`
	TotalFats       int64  `json:"total_fats"`

	// ActiveMains is the number of mains currently in the corporation.
	// Zero means per-capita participation cannot be computed; PerCapita is
	// left at 0 rather than dividing by zero.
	ActiveMains int64   `json:"active_mains"`
	PerCapita   float64 `json:"per_capita"`
}

// RelativeParticipation returns each corporation's totals for a period
// normalized by its current active-main headcount, so small and large
// corporations compare on the same scale.
//
// Headcounts are read from the current identity snapshot at query time, not
// from the period being queried.
func (s *Service) RelativeParticipation(ctx context.Context, month, year int, sources []string) ([]CorpParticipation, error) {
	totals, err := s.db.CorpTotalsForPeriod(ctx, month, year, sources)
	if err != nil {
		return nil, fmt.Errorf("corp totals for %d/%d: %w", month, year, err)
	}

	out := make([]CorpParticipation, 0, len(totals))
	for _, t := range totals {
		mains, err := s.db.CountActiveMains(ctx, t.CorporationID)
		if err != nil {
			return nil, fmt.Errorf("active mains for corporation %d: %w", t.CorporationID, err)
		}

		p := CorpParticipation{
			CorporationID:   t.CorporationID,
			CorporationName: t.CorporationName,
			TotalFats:       t.TotalFats,
			ActiveMains:     mains,
		}
		if mains > 0 {
			p.PerCapita = float64(t.TotalFats) / float64(mains)
		}
		out = append(out, p)
	}
	return out, nil
}
