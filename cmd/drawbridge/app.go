package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rpggio/drawbridge/internal/config"
	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/domain/namespace"
	"github.com/rpggio/drawbridge/internal/domain/session"
	"github.com/rpggio/drawbridge/internal/domain/table"
	"github.com/rpggio/drawbridge/internal/mcp"
	"github.com/rpggio/drawbridge/internal/metrics"
	"github.com/rpggio/drawbridge/internal/physical"
	"github.com/rpggio/drawbridge/internal/sqlite"
)

// app holds the opened stores and the services built on them.
type app struct {
	meta     *sqlite.DB
	store    *physical.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	tables     *table.Service
	namespaces *namespace.Service
	sessions   *session.Service
	activity   *activity.Service
	apiKeys    *sqlite.APIKeyRepository
}

// openApp opens the metadata and physical databases, applies migrations
// and wires the services.
func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := ensureDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	meta, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := meta.RunMigrations(ctx); err != nil {
		meta.Close()
		return nil, err
	}

	if strings.EqualFold(cfg.Storage.Driver, "sqlite") {
		if err := ensureDir(cfg.Storage.DSN); err != nil {
			meta.Close()
			return nil, fmt.Errorf("prepare storage path: %w", err)
		}
	}
	store, err := physical.Open(cfg.Storage.Driver, cfg.Storage.DSN, logger)
	if err != nil {
		meta.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	activityRepo := sqlite.NewActivityRepository(meta)

	a := &app{
		meta:     meta,
		store:    store,
		registry: registry,
		metrics:  m,
		tables: table.NewService(sqlite.NewTableRepository(meta), store, logger, table.Options{
			Activities: activityRepo,
			Metrics:    m,
		}),
		namespaces: namespace.NewService(sqlite.NewNamespaceRepository(meta), logger),
		sessions: session.NewService(sqlite.NewSessionRepository(meta), logger, session.Options{
			TTL:        cfg.Session.TTL,
			Activities: activityRepo,
			Metrics:    m,
		}),
		activity: activity.NewService(activityRepo, logger),
		apiKeys:  sqlite.NewAPIKeyRepository(meta),
	}
	return a, nil
}

func (a *app) handler(logger *slog.Logger) *mcp.Handler {
	return mcp.NewHandler(mcp.Services{
		Tables:     a.tables,
		Namespaces: a.namespaces,
		Sessions:   a.sessions,
		Activity:   a.activity,
	}, logger)
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.meta.Close())
}
