// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/fleetstats/internal/report"
	"github.com/tomtom215/fleetstats/internal/rollup"
)

// rollupParams extracts the shared rollup query parameters: the period
// (defaulting to the previous calendar month) and the source filter. On a
// bad parameter it writes the error response and reports ok false.
func rollupParams(w http.ResponseWriter, r *http.Request) (month, year int, sources []string, ok bool) {
	defMonth, defYear := report.PreviousMonth(time.Now())
	month, year, err := periodParams(r, defMonth, defYear)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), nil)
		return 0, 0, nil, false
	}
	sources, err = rollup.ResolveSources(r.URL.Query().Get("source"))
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), nil)
		return 0, 0, nil, false
	}
	return month, year, sources, true
}

// RollupRelative returns per-corporation totals normalized by active-main
// headcount.
func (h *Handler) RollupRelative(w http.ResponseWriter, r *http.Request) {
	month, year, sources, ok := rollupParams(w, r)
	if !ok {
		return
	}

	data, err := h.rollups.RelativeParticipation(r.Context(), month, year, sources)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to compute relative participation", err)
		return
	}
	respondOK(w, http.StatusOK, data)
}

// RollupSeries returns the zero-filled monthly time series with rolling
// means, over a trailing window ending at the selected period.
func (h *Handler) RollupSeries(w http.ResponseWriter, r *http.Request) {
	month, year, sources, ok := rollupParams(w, r)
	if !ok {
		return
	}
	window := getIntParam(r, "window", 0)
	if window < 0 || window > 36 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "window must be 0-36", nil)
		return
	}

	data, err := h.rollups.MonthlySeries(r.Context(), month, year, window, sources)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to compute monthly series", err)
		return
	}
	respondOK(w, http.StatusOK, data)
}

// RollupLeaderboard returns the top-N mains by total fats.
func (h *Handler) RollupLeaderboard(w http.ResponseWriter, r *http.Request) {
	month, year, sources, ok := rollupParams(w, r)
	if !ok {
		return
	}
	n := getIntParam(r, "limit", 0)
	if n < 0 || n > 500 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "limit must be 0-500", nil)
		return
	}

	data, err := h.rollups.Leaderboard(r.Context(), month, year, n, sources)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to compute leaderboard", err)
		return
	}
	respondOK(w, http.StatusOK, data)
}

// RollupMatrix returns the main-by-fleet-type participation matrix.
func (h *Handler) RollupMatrix(w http.ResponseWriter, r *http.Request) {
	month, year, sources, ok := rollupParams(w, r)
	if !ok {
		return
	}

	data, err := h.rollups.ParticipationMatrix(r.Context(), month, year, sources)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to compute participation matrix", err)
		return
	}
	respondOK(w, http.StatusOK, data)
}

// RollupCreators returns the per-organizer breakdown for a period.
func (h *Handler) RollupCreators(w http.ResponseWriter, r *http.Request) {
	month, year, _, ok := rollupParams(w, r)
	if !ok {
		return
	}

	data, err := h.rollups.Creators(r.Context(), month, year)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to compute creator breakdown", err)
		return
	}
	respondOK(w, http.StatusOK, data)
}
