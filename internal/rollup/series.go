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

// MonthRef labels one point on a series' month axis.
type MonthRef struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// CorpSeries is one corporation's monthly totals over the requested window,
// aligned to the axis in Series.Months, plus the rolling mean of those
// totals.
type CorpSeries struct {
	CorporationID   int64     `json:"corporation_id"`
	CorporationName string    `json:"corporation_name"`
	Totals          []int64   `json:"totals"`
	RollingMean     []float64 `json:"rolling_mean"`
}

// Series is the zero-filled monthly time series for all corporations with
// any activity in the window.
type Series struct {
	Months []MonthRef   `json:"months"`
	Corps  []CorpSeries `json:"corps"`
}

// MonthlySeries returns per-corporation totals for the window of calendar
// months ending at (month, year) inclusive. Months with no stats appear as
// zero so trend lines have no gaps. window <= 0 uses the configured default.
func (s *Service) MonthlySeries(ctx context.Context, month, year, window int, sources []string) (*Series, error) {
	if window <= 0 {
		window = s.cfg.DefaultWindow
	}

	endSerial := monthSerial(month, year)
	fromSerial := endSerial - window + 1

	rows, err := s.db.CorpMonthTotals(ctx, fromSerial, endSerial, sources)
	if err != nil {
		return nil, fmt.Errorf("corp month totals: %w", err)
	}

	months := make([]MonthRef, window)
	for i := range months {
		m, y := serialMonth(fromSerial + i)
		months[i] = MonthRef{Month: m, Year: y}
	}

	type corpKey struct {
		id   int64
		name string
	}
	byCorp := make(map[corpKey][]int64)
	for _, r := range rows {
		key := corpKey{id: r.CorporationID, name: r.CorporationName}
		totals, ok := byCorp[key]
		if !ok {
			totals = make([]int64, window)
			byCorp[key] = totals
		}
		totals[monthSerial(r.Month, r.Year)-fromSerial] = r.TotalFats
	}

	series := &Series{Months: months}
	for key, totals := range byCorp {
		series.Corps = append(series.Corps, CorpSeries{
			CorporationID:   key.id,
			CorporationName: key.name,
			Totals:          totals,
			RollingMean:     rollingMean(totals, s.cfg.RollingWindow),
		})
	}
	sort.Slice(series.Corps, func(i, j int) bool {
		return series.Corps[i].CorporationName < series.Corps[j].CorporationName
	})
	return series, nil
}

// rollingMean computes the trailing mean over at most window points. Early
// positions average over however many points exist so far, so the output has
// no leading gaps and the same length as the input.
func rollingMean(totals []int64, window int) []float64 {
	if window <= 0 {
		window = 1
	}
	out := make([]float64, len(totals))
	var sum int64
	for i, v := range totals {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= totals[i-window]
		}
		out[i] = float64(sum) / float64(n)
	}
	return out
}
