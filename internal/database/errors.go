// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/fleetstats/internal/metrics"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when an insert violates a unique constraint.
// Under concurrent aggregation this is an expected per-row outcome: the
// caller logs it, counts it, and skips the row.
var ErrDuplicateKey = errors.New("duplicate key")

// PeriodAggregatedError reports that a (month, year, source) period already
// holds aggregated stats. The whole run must be aborted before any writes.
type PeriodAggregatedError struct {
	Month  int
	Year   int
	Source string
}

func (e *PeriodAggregatedError) Error() string {
	return fmt.Sprintf("stats for %d/%d from source %q already aggregated", e.Month, e.Year, e.Source)
}

// queryFailed counts a failed database operation and returns err unchanged.
// Duplicate-key outcomes are not failures and must not pass through here.
func queryFailed(operation string, err error) error {
	metrics.DBQueryErrors.WithLabelValues(operation).Inc()
	return err
}

// IsDuplicateKey reports whether err is a unique-constraint violation, either
// our sentinel or a raw DuckDB constraint error.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
