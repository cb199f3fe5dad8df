// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/fleetstats/internal/config"
)

// NewRouter assembles the HTTP surface around the handler set.
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Security.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/api/v1/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
		r.Use(Observability())

		// Report uploads and the column-mapping handshake.
		r.Post("/reports", h.UploadReport)
		r.Post("/reports/{id}/mapping", h.ApplyMapping)

		// Aggregation jobs and period administration.
		r.Post("/aggregate", h.TriggerAggregate)
		r.Get("/jobs/{id}", h.GetJob)
		r.Delete("/periods/{year}/{month}", h.ClearPeriod)

		// Unknown-account backfill.
		r.Get("/unknown-accounts", h.ListUnknownAccounts)
		r.Put("/unknown-accounts/{name}", h.BackfillUnknownAccount)

		// Advisory fleet-type caps.
		r.Get("/fleet-types/limits", h.ListFleetTypeLimits)
		r.Put("/fleet-types/{name}/limit", h.SetFleetTypeLimit)

		// Rollup queries.
		r.Route("/rollups", func(r chi.Router) {
			r.Get("/relative", h.RollupRelative)
			r.Get("/series", h.RollupSeries)
			r.Get("/leaderboard", h.RollupLeaderboard)
			r.Get("/matrix", h.RollupMatrix)
			r.Get("/creators", h.RollupCreators)
		})
	})

	return r
}
