// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/logging"
	"github.com/tomtom215/fleetstats/internal/metrics"
	"github.com/tomtom215/fleetstats/internal/models"
	"github.com/tomtom215/fleetstats/internal/report"
)

// RunExternalReport aggregates a parsed external report into the monthly
// stats for (month, year) under the external-report source.
//
// mapping is the finalized header-to-fleet-type mapping from the column
// handshake; headers absent from it are not read. Each positive integer cell
// becomes one paired user+corp increment. Zero, empty and non-numeric cells
// are skipped and counted, never fatal.
//
// Returns *database.PeriodAggregatedError when the period already holds
// external-report stats; no writes happen in that case.
func (e *Engine) RunExternalReport(ctx context.Context, rep *report.Report, mapping map[string]string, month, year int) (*Result, error) {
	unlock := e.lockPeriod(month, year, models.SourceExternalReport)
	defer unlock()

	res := &Result{
		Source:    models.SourceExternalReport,
		Month:     month,
		Year:      year,
		StartedAt: time.Now(),
	}

	has, err := e.db.PeriodHasStats(ctx, month, year, models.SourceExternalReport)
	if err != nil {
		metrics.IngestRuns.WithLabelValues(models.SourceExternalReport, "failed").Inc()
		return nil, fmt.Errorf("period guard for %d/%d: %w", month, year, err)
	}
	if has {
		metrics.IngestRuns.WithLabelValues(models.SourceExternalReport, "skipped").Inc()
		return nil, &database.PeriodAggregatedError{Month: month, Year: year, Source: models.SourceExternalReport}
	}

	// Stable column order keeps runs reproducible and log output readable.
	columns := make([]string, 0, len(mapping))
	for col := range mapping {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	// Fleet types are created lazily on first positive cell per column.
	fleetTypeIDs := make(map[string]int64, len(columns))

	for _, row := range rep.Rows {
		if err := ctx.Err(); err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceExternalReport, "failed").Inc()
			return nil, err
		}

		name := row[report.AccountColumn]
		if name == "" {
			res.Skipped++
			continue
		}

		id, ok, err := e.resolver.Resolve(ctx, name)
		if err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceExternalReport, "failed").Inc()
			return nil, fmt.Errorf("resolving account %q: %w", name, err)
		}
		if !ok {
			res.Unresolved++
			metrics.RowsProcessed.WithLabelValues(models.SourceExternalReport, "unresolved").Inc()
			continue
		}

		applied := false
		for _, col := range columns {
			count, ok := parseCellCount(row[col])
			if !ok {
				res.SkippedCells++
				continue
			}

			ftID, err := e.fleetTypeID(ctx, fleetTypeIDs, mapping[col], models.SourceExternalReport, month, year)
			if err != nil {
				metrics.IngestRuns.WithLabelValues(models.SourceExternalReport, "failed").Inc()
				return nil, err
			}

			err = e.db.IncrementUserAndCorpStats(ctx, id.UserID, id.CorporationID, month, year, ftID, count)
			if database.IsDuplicateKey(err) {
				res.Duplicates++
				metrics.RowsProcessed.WithLabelValues(models.SourceExternalReport, "duplicate").Inc()
				logging.Warn().
					Str("account", name).
					Str("fleet_type", mapping[col]).
					Int("month", month).
					Int("year", year).
					Msg("Duplicate stat increment skipped")
				continue
			}
			if err != nil {
				metrics.IngestRuns.WithLabelValues(models.SourceExternalReport, "failed").Inc()
				return nil, fmt.Errorf("incrementing stats for account %q: %w", name, err)
			}
			applied = true
		}

		if applied {
			res.Processed++
			metrics.RowsProcessed.WithLabelValues(models.SourceExternalReport, "processed").Inc()
		} else {
			res.Skipped++
			metrics.RowsProcessed.WithLabelValues(models.SourceExternalReport, "skipped").Inc()
		}
	}

	res.FinishedAt = time.Now()
	metrics.IngestRuns.WithLabelValues(models.SourceExternalReport, "completed").Inc()
	metrics.IngestDuration.WithLabelValues(models.SourceExternalReport).Observe(res.Duration().Seconds())

	logging.Info().
		Int("month", month).
		Int("year", year).
		Int("processed", res.Processed).
		Int("unresolved", res.Unresolved).
		Int("skipped", res.Skipped).
		Int("skipped_cells", res.SkippedCells).
		Int("duplicates", res.Duplicates).
		Dur("duration", res.Duration()).
		Msg("External report aggregated")
	return res, nil
}

// fleetTypeID returns the cached fleet type ID for name, creating the
// (name, source, month, year) row on first use.
func (e *Engine) fleetTypeID(ctx context.Context, cache map[string]int64, name, source string, month, year int) (int64, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}
	ft, err := e.db.GetOrCreateFleetType(ctx, name, source, month, year)
	if err != nil {
		return 0, fmt.Errorf("fleet type %q for %d/%d: %w", name, month, year, err)
	}
	cache[name] = ft.ID
	return ft.ID, nil
}

// parseCellCount interprets one report cell. Only strictly positive integers
// count; zero, empty and malformed cells report false.
func parseCellCount(cell string) (int64, bool) {
	if cell == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(cell, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// IsPeriodAggregated reports whether err is the whole-period idempotence
// rejection, and returns the typed error when it is.
func IsPeriodAggregated(err error) (*database.PeriodAggregatedError, bool) {
	var pae *database.PeriodAggregatedError
	if errors.As(err, &pae) {
		return pae, true
	}
	return nil, false
}
