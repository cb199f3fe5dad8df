// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package api exposes the HTTP surface: report uploads and the mapping
// handshake, aggregation triggers and job status, period administration, and
// the rollup queries.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/fleetstats/internal/aggregate"
	"github.com/tomtom215/fleetstats/internal/config"
	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/report"
	"github.com/tomtom215/fleetstats/internal/rollup"
)

// Error codes returned in the API error envelope.
const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeNotFound         = "NOT_FOUND"
	codePeriodAggregated = "PERIOD_ALREADY_AGGREGATED"
	codeQueueFull        = "QUEUE_FULL"
	codeInternal         = "INTERNAL_ERROR"
)

// Handler holds the dependencies the HTTP handlers operate on.
type Handler struct {
	cfg      *config.Config
	db       *database.DB
	sessions *report.Sessions
	queue    *aggregate.Queue
	rollups  *rollup.Service
}

// NewHandler creates the API handler set.
func NewHandler(cfg *config.Config, db *database.DB, sessions *report.Sessions, queue *aggregate.Queue, rollups *rollup.Service) *Handler {
	return &Handler{
		cfg:      cfg,
		db:       db,
		sessions: sessions,
		queue:    queue,
		rollups:  rollups,
	}
}

// Health reports service liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	respondOK(w, httpStatus, map[string]string{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
