// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetstats/internal/aggregate"
	"github.com/tomtom215/fleetstats/internal/logging"
	"github.com/tomtom215/fleetstats/internal/models"
	"github.com/tomtom215/fleetstats/internal/report"
)

// aggregateRequest selects the period for an internal-log aggregation run.
// Both fields default to the previous calendar month.
type aggregateRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// TriggerAggregate queues an internal-log aggregation run. Responds 202 with
// the job; poll GET /jobs/{id} for the outcome, including the
// already-aggregated rejection.
func (h *Handler) TriggerAggregate(w http.ResponseWriter, r *http.Request) {
	defMonth, defYear := report.PreviousMonth(time.Now())
	req := aggregateRequest{Month: defMonth, Year: defYear}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, codeInvalidRequest, "invalid aggregation payload", err)
			return
		}
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 || req.Year > 9999 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "month must be 1-12 and year a four-digit year", nil)
		return
	}

	job, err := h.queue.EnqueueInternalLog(req.Month, req.Year)
	if errors.Is(err, aggregate.ErrQueueFull) {
		respondError(w, http.StatusServiceUnavailable, codeQueueFull, "aggregation queue is full, retry later", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to queue aggregation", err)
		return
	}
	respondOK(w, http.StatusAccepted, job)
}

// GetJob returns the current state of a queued aggregation job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, codeNotFound, "job not found", nil)
		return
	}

	if job.Status == aggregate.StatusSkipped {
		// The idempotence rejection gets its own code so clients can tell
		// "nothing to do" from a real failure.
		respondJSON(w, http.StatusConflict, &models.APIResponse{
			Status: "error",
			Data:   job,
			Error: &models.APIError{
				Code:    codePeriodAggregated,
				Message: job.Error,
			},
		})
		return
	}
	respondOK(w, http.StatusOK, job)
}

// ClearPeriod deletes all aggregated stats for one period across both
// sources. Month and year are required path segments; there is deliberately
// no "clear everything" form.
func (h *Handler) ClearPeriod(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 9999 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "year must be a four-digit year", nil)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "month must be 1-12", nil)
		return
	}

	if err := h.db.ClearPeriod(r.Context(), month, year); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to clear period", err)
		return
	}

	logging.Info().Int("month", month).Int("year", year).Msg("Period cleared")
	respondOK(w, http.StatusOK, map[string]int{"month": month, "year": year})
}
