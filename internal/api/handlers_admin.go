// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/logging"
)

// ListUnknownAccounts returns the accounts awaiting operator backfill plus
// those already mapped.
func (h *Handler) ListUnknownAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.db.ListUnknownAccounts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list unknown accounts", err)
		return
	}
	respondOK(w, http.StatusOK, accounts)
}

// backfillRequest maps one unknown account name to a user.
type backfillRequest struct {
	UserID int64 `json:"user_id"`
}

// BackfillUnknownAccount records an operator's mapping of an unresolved
// account name to a user. Later imports resolve the name through this
// mapping; already-ingested periods are not retroactively changed.
func (h *Handler) BackfillUnknownAccount(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "invalid account name", nil)
		return
	}

	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "user_id must be a positive integer", err)
		return
	}

	if _, err := h.db.GetUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "user not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to look up user", err)
		return
	}

	if err := h.db.SetUnknownAccountUser(r.Context(), name, req.UserID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "unknown account not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to backfill account", err)
		return
	}

	logging.Info().
		Str("account", sanitizeLogValue(name)).
		Int64("user_id", req.UserID).
		Msg("Unknown account backfilled")
	respondOK(w, http.StatusOK, map[string]interface{}{
		"account_name": name,
		"user_id":      req.UserID,
	})
}

// limitRequest sets the advisory monthly cap for one fleet type.
type limitRequest struct {
	Limit int64 `json:"limit"`
}

// SetFleetTypeLimit stores an advisory per-type monthly cap. Caps never
// block ingestion; the rollup matrix reports them alongside the totals.
func (h *Handler) SetFleetTypeLimit(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "invalid fleet type name", nil)
		return
	}

	var req limitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Limit <= 0 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "limit must be a positive integer", err)
		return
	}

	if err := h.db.SetFleetTypeLimit(r.Context(), name, req.Limit); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to set fleet type limit", err)
		return
	}
	respondOK(w, http.StatusOK, map[string]interface{}{
		"name":  name,
		"limit": req.Limit,
	})
}

// ListFleetTypeLimits returns all configured advisory caps.
func (h *Handler) ListFleetTypeLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.db.GetFleetTypeLimits(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list fleet type limits", err)
		return
	}
	respondOK(w, http.StatusOK, limits)
}
