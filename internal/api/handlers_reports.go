// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetstats/internal/aggregate"
	"github.com/tomtom215/fleetstats/internal/logging"
	"github.com/tomtom215/fleetstats/internal/report"
)

// maxReportSize bounds uploaded report bodies.
const maxReportSize = 16 << 20

// uploadResponse is the phase-1 answer to a report upload: the session to
// quote back in phase 2 plus the mapping questions still open.
type uploadResponse struct {
	SessionID string                 `json:"session_id"`
	Month     int                    `json:"month"`
	Year      int                    `json:"year"`
	Rows      int                    `json:"rows"`
	Prompts   []report.MappingPrompt `json:"prompts"`
}

// UploadReport accepts an external report and opens a mapping session. The
// CSV arrives either as a multipart "file" field or as the raw request body.
// The target period defaults to the previous calendar month; month/year query
// parameters override it.
func (h *Handler) UploadReport(w http.ResponseWriter, r *http.Request) {
	defMonth, defYear := report.PreviousMonth(time.Now())
	month, year, err := periodParams(r, defMonth, defYear)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), nil)
		return
	}

	body, err := reportBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "report file missing from upload", err)
		return
	}
	defer closeQuietly(body)

	rep, err := report.Parse(io.LimitReader(body, maxReportSize))
	if err != nil {
		if errors.Is(err, report.ErrMissingAccountColumn) {
			respondError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), nil)
			return
		}
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "report could not be parsed", err)
		return
	}

	prompts, err := report.DiscoverColumns(r.Context(), h.db, rep.Headers)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to prepare column mapping", err)
		return
	}

	sess := h.sessions.Put(rep, month, year)
	logging.Info().
		Str("session_id", sess.ID).
		Int("month", month).
		Int("year", year).
		Int("rows", len(rep.Rows)).
		Int("open_prompts", len(prompts)).
		Msg("Report uploaded")

	respondOK(w, http.StatusOK, uploadResponse{
		SessionID: sess.ID,
		Month:     month,
		Year:      year,
		Rows:      len(rep.Rows),
		Prompts:   prompts,
	})
}

// reportBody selects the CSV stream from the request: the "file" part of a
// multipart form, or the raw body otherwise.
func reportBody(r *http.Request) (io.ReadCloser, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(maxReportSize); err != nil {
		return nil, fmt.Errorf("parsing multipart form: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("reading file part: %w", err)
	}
	return f, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}

// mappingRequest is the phase-2 payload: the operator's decision per column.
type mappingRequest struct {
	Decisions []report.Decision `json:"decisions"`
}

// ApplyMapping finalizes a session's column mapping and queues the report
// for aggregation. The session is consumed on success.
func (h *Handler) ApplyMapping(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		respondError(w, http.StatusNotFound, codeNotFound, "upload session not found or expired", nil)
		return
	}

	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "invalid mapping payload", err)
		return
	}

	mapping, err := report.ApplyDecisions(r.Context(), h.db, sess.Report.Headers, req.Decisions)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to apply mapping decisions", err)
		return
	}
	if len(mapping) == 0 {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "no columns are mapped to fleet types", nil)
		return
	}

	job, err := h.queue.EnqueueExternalReport(sess.Report, mapping, sess.Month, sess.Year)
	if errors.Is(err, aggregate.ErrQueueFull) {
		respondError(w, http.StatusServiceUnavailable, codeQueueFull, "aggregation queue is full, retry later", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to queue aggregation", err)
		return
	}

	h.sessions.Delete(sessionID)
	respondOK(w, http.StatusAccepted, job)
}
