// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/fleetstats/internal/models"
)

// sourcePlaceholders builds an IN (?, ...) clause fragment plus its args.
func sourcePlaceholders(sources []string) (string, []interface{}) {
	placeholders := make([]string, len(sources))
	args := make([]interface{}, len(sources))
	for i, s := range sources {
		placeholders[i] = "?"
		args[i] = s
	}
	return strings.Join(placeholders, ", "), args
}

// CorpTotalsForPeriod returns per-corporation fat totals for one period,
// restricted to the given sources, ordered by corporation name.
func (db *DB) CorpTotalsForPeriod(ctx context.Context, month, year int, sources []string) ([]models.CorpTotal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	in, args := sourcePlaceholders(sources)
	query := fmt.Sprintf(`
		SELECT s.corporation_id,
		       COALESCE(co.corporation_name, CAST(s.corporation_id AS VARCHAR)),
		       SUM(s.total_fats)
		FROM monthly_corp_stats s
		JOIN monthly_fleet_types ft ON ft.id = s.fleet_type_id
		LEFT JOIN corporations co ON co.corporation_id = s.corporation_id
		WHERE s.month = ? AND s.year = ? AND ft.source IN (%s)
		GROUP BY s.corporation_id, co.corporation_name
		ORDER BY 2
	`, in)
	args = append([]interface{}{month, year}, args...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query corp totals: %w", err)
	}
	defer rows.Close()

	var totals []models.CorpTotal
	for rows.Next() {
		var t models.CorpTotal
		if err := rows.Scan(&t.CorporationID, &t.CorporationName, &t.TotalFats); err != nil {
			return nil, fmt.Errorf("failed to scan corp total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// UserFleetTypeTotals returns per-main, per-fleet-type totals for one period
// and source set. The main-character name is resolved from the current
// identity snapshot, falling back to the username.
func (db *DB) UserFleetTypeTotals(ctx context.Context, month, year int, sources []string) ([]models.UserFleetTypeTotal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	in, args := sourcePlaceholders(sources)
	query := fmt.Sprintf(`
		SELECT s.user_id,
		       COALESCE(mc.character_name, u.username, CAST(s.user_id AS VARCHAR)),
		       s.corporation_id,
		       ft.name,
		       SUM(s.total_fats)
		FROM monthly_user_stats s
		JOIN monthly_fleet_types ft ON ft.id = s.fleet_type_id
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN user_profiles p ON p.user_id = s.user_id
		LEFT JOIN characters mc ON mc.character_id = p.main_character_id
		WHERE s.month = ? AND s.year = ? AND ft.source IN (%s)
		GROUP BY s.user_id, mc.character_name, u.username, s.corporation_id, ft.name
		ORDER BY 2, ft.name
	`, in)
	args = append([]interface{}{month, year}, args...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user fleet type totals: %w", err)
	}
	defer rows.Close()

	var totals []models.UserFleetTypeTotal
	for rows.Next() {
		var t models.UserFleetTypeTotal
		if err := rows.Scan(&t.UserID, &t.MainName, &t.CorporationID, &t.FleetType, &t.TotalFats); err != nil {
			return nil, fmt.Errorf("failed to scan user fleet type total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// UserTotals returns per-main summed fats for one period across the given
// sources, for the leaderboard.
func (db *DB) UserTotals(ctx context.Context, month, year int, sources []string) ([]models.UserTotal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	in, args := sourcePlaceholders(sources)
	query := fmt.Sprintf(`
		SELECT s.user_id,
		       COALESCE(mc.character_name, u.username, CAST(s.user_id AS VARCHAR)),
		       SUM(s.total_fats)
		FROM monthly_user_stats s
		JOIN monthly_fleet_types ft ON ft.id = s.fleet_type_id
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN user_profiles p ON p.user_id = s.user_id
		LEFT JOIN characters mc ON mc.character_id = p.main_character_id
		WHERE s.month = ? AND s.year = ? AND ft.source IN (%s)
		GROUP BY s.user_id, mc.character_name, u.username
	`, in)
	args = append([]interface{}{month, year}, args...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user totals: %w", err)
	}
	defer rows.Close()

	var totals []models.UserTotal
	for rows.Next() {
		var t models.UserTotal
		if err := rows.Scan(&t.UserID, &t.MainName, &t.TotalFats); err != nil {
			return nil, fmt.Errorf("failed to scan user total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// CorpMonthTotals returns per-corporation monthly totals for all periods in
// the inclusive serial range [fromSerial, toSerial], where a serial is
// year*12 + (month-1). The rollup layer zero-fills missing months.
func (db *DB) CorpMonthTotals(ctx context.Context, fromSerial, toSerial int, sources []string) ([]models.CorpMonthTotal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	in, args := sourcePlaceholders(sources)
	query := fmt.Sprintf(`
		SELECT s.corporation_id,
		       COALESCE(co.corporation_name, CAST(s.corporation_id AS VARCHAR)),
		       s.month, s.year,
		       SUM(s.total_fats)
		FROM monthly_corp_stats s
		JOIN monthly_fleet_types ft ON ft.id = s.fleet_type_id
		LEFT JOIN corporations co ON co.corporation_id = s.corporation_id
		WHERE (s.year * 12 + s.month - 1) BETWEEN ? AND ?
		  AND ft.source IN (%s)
		GROUP BY s.corporation_id, co.corporation_name, s.month, s.year
		ORDER BY 2, s.year, s.month
	`, in)
	args = append([]interface{}{fromSerial, toSerial}, args...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query corp month totals: %w", err)
	}
	defer rows.Close()

	var totals []models.CorpMonthTotal
	for rows.Next() {
		var t models.CorpMonthTotal
		if err := rows.Scan(&t.CorporationID, &t.CorporationName, &t.Month, &t.Year, &t.TotalFats); err != nil {
			return nil, fmt.Errorf("failed to scan corp month total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// CreatorTotals returns per-organizer created-fleet counts per fleet type for
// one period, ordered by username.
func (db *DB) CreatorTotals(ctx context.Context, month, year int) ([]models.CreatorTotal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.creator_id,
		       COALESCE(u.username, CAST(s.creator_id AS VARCHAR)),
		       ft.name,
		       SUM(s.total_created)
		FROM monthly_creator_stats s
		JOIN monthly_fleet_types ft ON ft.id = s.fleet_type_id
		LEFT JOIN users u ON u.id = s.creator_id
		WHERE s.month = ? AND s.year = ?
		GROUP BY s.creator_id, u.username, ft.name
		ORDER BY 2, ft.name
	`, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query creator totals: %w", err)
	}
	defer rows.Close()

	var totals []models.CreatorTotal
	for rows.Next() {
		var t models.CreatorTotal
		if err := rows.Scan(&t.CreatorID, &t.Username, &t.FleetType, &t.TotalCreated); err != nil {
			return nil, fmt.Errorf("failed to scan creator total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
