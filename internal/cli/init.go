// Package cli provides common initialization shared by cmd/myfinances,
// cmd/myfinances-server and cmd/ledger-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodsign/monday"
	"github.com/joho/godotenv"

	"myfinances/internal/amqp"
	"myfinances/internal/backend"
	"myfinances/internal/config"
	"myfinances/internal/ledger"
	"myfinances/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and makes it the
// slog default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the configured store. Exits the process on failure.
func InitStore(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err.Error(), "backend", bcfg.Type.String())
		os.Exit(1)
	}
	return res
}

// InitPublisher connects to the broker when AMQP_URL is set. A broker that
// cannot be reached is logged and skipped: appends still succeed without it.
func InitPublisher(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err.Error())
		return nil
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// Formatter builds the summary formatter from the display settings.
func Formatter(cfg *config.Config) ledger.Formatter {
	f := ledger.DefaultFormatter()
	f.Currency = cfg.Currency
	f.Locale = monday.Locale(cfg.Locale)
	if anchor, err := ledger.ParseNetAnchor(cfg.NetAnchor); err == nil {
		f.NetAnchor = anchor
	}
	return f
}

// NewAggregator wires the ledger aggregator to the store and, when present,
// the event publisher.
func NewAggregator(cfg *config.Config, res *backend.BackendResult, publisher *amqp.Client, logger *log.Logger) *ledger.Aggregator {
	opts := []ledger.Option{
		ledger.WithFormatter(Formatter(cfg)),
		ledger.WithLogger(logger),
	}
	if publisher != nil {
		opts = append(opts, ledger.WithNotifier(publisher))
	}
	return ledger.NewAggregator(res.Store, opts...)
}

// GracefulShutdown returns a context cancelled on SIGINT/SIGTERM. cleanup
// runs after cancellation, bounded by timeout; done closes when it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}
