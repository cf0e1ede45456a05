package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"myfinances/internal/amqp"
	"myfinances/internal/cache"
	"myfinances/internal/core"
	"myfinances/internal/ledger"
	"myfinances/internal/log"
)

// SummaryLoader is the part of the ledger aggregator the worker needs.
type SummaryLoader interface {
	LoadSummary(ctx context.Context, identityID string) (ledger.Result, error)
}

// SummaryWorker recomputes an identity's summary whenever its ledger changes.
type SummaryWorker struct {
	loader SummaryLoader
	logger *log.Logger
	// last refresh time per identity; events older than it are already
	// reflected and skipped
	refreshed *cache.LRUCache[time.Time]
	now       func() time.Time
}

func NewSummaryWorker(loader SummaryLoader, logger *log.Logger, size int) *SummaryWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SummaryWorker{
		loader:    loader,
		logger:    logger.WithComponent(log.ComponentWorker),
		refreshed: cache.NewLRUCache[time.Time](size, 0),
		now:       time.Now,
	}
}

// HandleLedgerChanged processes a single ledger-changed message.
func (w *SummaryWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if last, ok := w.refreshed.Get(msg.IdentityID); ok && msg.Timestamp.Before(last) {
		w.logger.DebugContext(ctx, "Skipping stale ledger change",
			log.FieldIdentityID, msg.IdentityID,
			log.FieldRecordID, msg.RecordID)
		return nil
	}

	started := w.now()
	res, err := w.loader.LoadSummary(ctx, msg.IdentityID)
	switch {
	case errors.Is(err, core.ErrStorageUnavailable):
		return fmt.Errorf("load summary: %w", err)
	case err != nil:
		// Retrying cannot fix a bad identity or a corrupt blob.
		w.logger.Fields(ctx, slog.LevelError, "Cannot summarize ledger",
			log.NewFields().WithOperation(log.OpLoad).WithIdentity(msg.IdentityID).
				WithError(err).WithErrorKind(core.KindOf(err)))
		return nil
	}
	w.refreshed.Set(msg.IdentityID, started)

	w.logger.InfoContext(ctx, "Summary refreshed",
		log.FieldIdentityID, msg.IdentityID,
		log.FieldRecordID, msg.RecordID,
		"credit", res.Summary.Credit.Amount,
		"debit", res.Summary.Debit.Amount,
		"net", res.Summary.Net.Amount,
		log.FieldRecords, len(res.Records),
		log.FieldSkipped, res.Skipped)
	return nil
}
