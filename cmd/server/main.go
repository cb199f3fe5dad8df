// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Fleetstats aggregates fleet-participation activity for one alliance into
// idempotent monthly statistics and serves rollup queries over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/fleetstats/internal/aggregate"
	"github.com/tomtom215/fleetstats/internal/api"
	"github.com/tomtom215/fleetstats/internal/config"
	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/identity"
	"github.com/tomtom215/fleetstats/internal/logging"
	"github.com/tomtom215/fleetstats/internal/report"
	"github.com/tomtom215/fleetstats/internal/rollup"
	"github.com/tomtom215/fleetstats/internal/supervisor"
)

const jobQueueCapacity = 16

func main() {
	if err := run(); err != nil {
		logging.Err(err).Msg("Service exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Path).
		Int64("alliance_id", cfg.Alliance.TargetID).
		Msg("Starting fleetstats")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Err(err).Msg("Database close failed")
		}
	}()

	resolver := identity.NewResolver(db)
	engine := aggregate.New(db, resolver, cfg.Alliance.TargetID)
	queue := aggregate.NewQueue(engine, jobQueueCapacity)
	rollups := rollup.New(db, cfg.Rollup)
	sessions := report.NewSessions(0)

	handler := api.NewHandler(cfg, db, sessions, queue, rollups)
	router := api.NewRouter(cfg, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(treeCfg)
	tree.AddWorkerService(queue)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logging.Info().Msg("Fleetstats stopped")
	return nil
}
