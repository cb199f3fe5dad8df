// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package aggregate implements the aggregation engine: the two ingestion
// pipelines that turn raw activity rows into idempotent monthly totals.
//
// Whole-period idempotence is enforced per (month, year, source): a period
// that already holds stats for a source is never aggregated again. The
// existence check and all writes run under a keyed mutex so two concurrent
// runs for the same key cannot both pass the check.
package aggregate

import (
	"fmt"
	"sync"

	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/identity"
)

// Engine consumes parsed rows from either source, resolves identities and
// fleet types, and accumulates per-user and per-corporation totals.
type Engine struct {
	db       *database.DB
	resolver *identity.Resolver

	// targetAllianceID scopes internal-log aggregation: events whose
	// resolved main is outside this alliance are skipped.
	targetAllianceID int64

	// periodLocks holds one mutex per (month, year, source) key, closing
	// the check-then-act race on the whole-period guard.
	periodLocks sync.Map
}

// New creates an aggregation engine.
func New(db *database.DB, resolver *identity.Resolver, targetAllianceID int64) *Engine {
	return &Engine{
		db:               db,
		resolver:         resolver,
		targetAllianceID: targetAllianceID,
	}
}

// lockPeriod acquires the mutex for one (month, year, source) key and
// returns its unlock function.
func (e *Engine) lockPeriod(month, year int, source string) func() {
	key := fmt.Sprintf("%04d-%02d:%s", year, month, source)
	muIface, _ := e.periodLocks.LoadOrStore(key, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
