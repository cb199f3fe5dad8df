// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/logging"
	"github.com/tomtom215/fleetstats/internal/metrics"
	"github.com/tomtom215/fleetstats/internal/models"
)

// RunInternalLog aggregates the stored attendance events for (month, year)
// under the internal-log source.
//
// All fleet types for the period, including the sentinel for unclassified
// events, are created up front from the period's distinct link types, so the
// per-event loop only ever reads them. Events whose resolved main is outside
// the target alliance are skipped. A second pass credits each event's fleet
// organizer in the creator stats.
//
// Returns *database.PeriodAggregatedError when the period already holds
// internal-log stats; no writes happen in that case.
func (e *Engine) RunInternalLog(ctx context.Context, month, year int) (*Result, error) {
	unlock := e.lockPeriod(month, year, models.SourceInternalLog)
	defer unlock()

	res := &Result{
		Source:    models.SourceInternalLog,
		Month:     month,
		Year:      year,
		StartedAt: time.Now(),
	}

	has, err := e.db.PeriodHasStats(ctx, month, year, models.SourceInternalLog)
	if err != nil {
		metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
		return nil, fmt.Errorf("period guard for %d/%d: %w", month, year, err)
	}
	if has {
		metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "skipped").Inc()
		return nil, &database.PeriodAggregatedError{Month: month, Year: year, Source: models.SourceInternalLog}
	}

	fleetTypeIDs, err := e.precreateFleetTypes(ctx, month, year)
	if err != nil {
		metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
		return nil, err
	}

	events, err := e.db.ListFatEventsForPeriod(ctx, month, year)
	if err != nil {
		metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
		return nil, fmt.Errorf("listing events for %d/%d: %w", month, year, err)
	}

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
			return nil, err
		}

		ch, err := e.db.GetCharacter(ctx, ev.CharacterID)
		if errors.Is(err, database.ErrNotFound) {
			res.Unresolved++
			metrics.RowsProcessed.WithLabelValues(models.SourceInternalLog, "unresolved").Inc()
			logging.Warn().
				Int64("event_id", ev.ID).
				Int64("character_id", ev.CharacterID).
				Msg("Event references unknown character")
			continue
		}
		if err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
			return nil, fmt.Errorf("character %d for event %d: %w", ev.CharacterID, ev.ID, err)
		}

		id, ok, err := e.resolver.Resolve(ctx, ch.CharacterName)
		if err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
			return nil, fmt.Errorf("resolving character %q: %w", ch.CharacterName, err)
		}
		if !ok {
			res.Unresolved++
			metrics.RowsProcessed.WithLabelValues(models.SourceInternalLog, "unresolved").Inc()
			continue
		}

		if id.MainCharacter.AllianceID == nil || *id.MainCharacter.AllianceID != e.targetAllianceID {
			res.Skipped++
			metrics.RowsProcessed.WithLabelValues(models.SourceInternalLog, "skipped").Inc()
			continue
		}

		ftID := fleetTypeIDs[eventFleetType(&ev)]

		err = e.db.IncrementUserAndCorpStats(ctx, id.UserID, id.CorporationID, month, year, ftID, 1)
		if database.IsDuplicateKey(err) {
			res.Duplicates++
			metrics.RowsProcessed.WithLabelValues(models.SourceInternalLog, "duplicate").Inc()
			logging.Warn().
				Int64("event_id", ev.ID).
				Int64("user_id", id.UserID).
				Msg("Duplicate stat increment skipped")
			continue
		}
		if err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
			return nil, fmt.Errorf("incrementing stats for event %d: %w", ev.ID, err)
		}
		res.Processed++
		metrics.RowsProcessed.WithLabelValues(models.SourceInternalLog, "processed").Inc()
	}

	// Organizer credits are independent of the attendee's alliance filter:
	// a fleet counts for its creator even when the attendee row was skipped.
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
			return nil, err
		}

		ftID := fleetTypeIDs[eventFleetType(&ev)]
		err := e.db.IncrementCreatorStat(ctx, ev.CreatorUserID, month, year, ftID, 1)
		if database.IsDuplicateKey(err) {
			res.Duplicates++
			continue
		}
		if err != nil {
			metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "failed").Inc()
			return nil, fmt.Errorf("crediting creator %d for event %d: %w", ev.CreatorUserID, ev.ID, err)
		}
		res.CreatorCredits++
	}

	res.FinishedAt = time.Now()
	metrics.IngestRuns.WithLabelValues(models.SourceInternalLog, "completed").Inc()
	metrics.IngestDuration.WithLabelValues(models.SourceInternalLog).Observe(res.Duration().Seconds())

	logging.Info().
		Int("month", month).
		Int("year", year).
		Int("events", len(events)).
		Int("processed", res.Processed).
		Int("unresolved", res.Unresolved).
		Int("skipped", res.Skipped).
		Int("duplicates", res.Duplicates).
		Int("creator_credits", res.CreatorCredits).
		Dur("duration", res.Duration()).
		Msg("Internal log aggregated")
	return res, nil
}

// precreateFleetTypes materializes every fleet type the period's events will
// reference, keyed by name. Doing this before the event loop keeps the hot
// path read-only on the fleet-type table.
func (e *Engine) precreateFleetTypes(ctx context.Context, month, year int) (map[string]int64, error) {
	linkTypes, err := e.db.DistinctLinkTypesForPeriod(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("listing link types for %d/%d: %w", month, year, err)
	}

	names := append(linkTypes, models.UnknownFleetType)
	ids := make(map[string]int64, len(names))
	for _, name := range names {
		ft, err := e.db.GetOrCreateFleetType(ctx, name, models.SourceInternalLog, month, year)
		if err != nil {
			return nil, fmt.Errorf("fleet type %q for %d/%d: %w", name, month, year, err)
		}
		ids[ft.Name] = ft.ID
	}
	return ids, nil
}

// eventFleetType names the fleet type an event belongs to. Unclassified
// events fall under the sentinel type.
func eventFleetType(ev *models.FatEvent) string {
	if ev.LinkType == nil || *ev.LinkType == "" {
		return models.UnknownFleetType
	}
	return *ev.LinkType
}
