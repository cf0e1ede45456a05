package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"myfinances/internal/amqp"
	"myfinances/internal/backend"
	"myfinances/internal/cli"
	"myfinances/internal/config"
	"myfinances/internal/ledger"
	"myfinances/internal/log"
	"myfinances/internal/session"
)

// app holds what every command needs: the restored session over the
// configured store and the ledger aggregator.
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	store     *backend.BackendResult
	publisher *amqp.Client
	sessions  *session.Manager
	ledger    *ledger.Aggregator
}

func openApp(ctx context.Context) (*app, error) {
	// Logs go to stderr and stay quiet unless LOG_LEVEL asks otherwise.
	lcfg := log.DefaultConfig()
	lcfg.Output = os.Stderr
	lcfg.Level = slog.LevelWarn
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		lcfg.Level = log.ParseLevel(lvl)
	}
	logger := log.New(lcfg)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    res,
		sessions: session.NewManager(res.Store, logger),
	}
	a.publisher = cli.InitPublisher(logger, cfg)
	a.ledger = cli.NewAggregator(cfg, res, a.publisher, logger)
	a.sessions.RestoreSession(ctx)
	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.store.Cleanup != nil {
		if err := a.store.Cleanup(); err != nil {
			a.logger.Error("Failed to close store", log.FieldError, err.Error())
		}
	}
}
