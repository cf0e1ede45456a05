package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myfinances/internal/auth/apple"
	"myfinances/internal/auth/google"
	"myfinances/internal/cache"
	"myfinances/internal/cli"
	apphttp "myfinances/internal/http"
	"myfinances/internal/log"
	"myfinances/internal/middleware/ratelimit"
	"myfinances/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	startup := context.Background()
	res := cli.InitStore(startup, logger, cfg)
	publisher := cli.InitPublisher(logger, cfg)
	aggregator := cli.NewAggregator(cfg, res, publisher, logger)

	sessions := session.NewManager(res.Store, logger)
	sessions.RestoreSession(startup)

	var verifier *apple.Verifier
	if cfg.AppleClientID != "" {
		v, err := apple.NewJWKSVerifier(startup, cfg.AppleClientID, cfg.AppleJWKSURL, logger)
		if err != nil {
			logger.Warn("Apple sign-in disabled, could not load signing keys", log.FieldError, err.Error())
		} else {
			verifier = v
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Sessions: sessions,
		Ledger:   aggregator,
		Google:   google.Redeemer{},
		Apple:    verifier,
		Store:    res.Store,
		Logger:   logger,
		Limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if publisher != nil {
			_ = publisher.Close()
		}
		if verifier != nil {
			verifier.Close()
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Failed to close store", log.FieldError, err.Error())
			}
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	if res.Cached != nil {
		sweeper := cache.NewManager(logger.Logger)
		sweeper.Register(res.Cached)
		g.Go(func() error {
			sweeper.Run(gctx, time.Minute)
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("Starting myfinances server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
