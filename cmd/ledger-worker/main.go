package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myfinances/internal/amqp"
	"myfinances/internal/cache"
	"myfinances/internal/cli"
	"myfinances/internal/log"
	"myfinances/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the ledger worker")
		os.Exit(1)
	}

	res := cli.InitStore(context.Background(), logger, cfg)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}

	// The worker only reads, so its aggregator publishes nothing.
	aggregator := cli.NewAggregator(cfg, res, nil, logger)
	summaries := worker.NewSummaryWorker(aggregator, logger, cfg.CacheSize)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		_ = client.Close()
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
		logger.Info("Starting ledger worker", "queue", cfg.AMQPQueue)
		err := client.Consume(gctx, summaries.HandleLedgerChanged)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	<-done
	logger.Info("Ledger worker stopped")
}
