// Package ledger loads an identity's transaction records from durable storage
// and derives the dashboard summary from them.
//
// Every LoadSummary call recomputes from the stored records; nothing is kept
// between calls. Ledgers are entered by hand and stay small, so a full
// re-read is cheap.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/storage"
)

// Notifier is told about every appended record, e.g. to make views reload.
type Notifier interface {
	LedgerChanged(ctx context.Context, identityID, recordID string) error
}

// Entry is the display form of a record.
type Entry struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Amount    string         `json:"amount"`
	Direction core.Direction `json:"direction"`
	Category  core.Category  `json:"category"`
	Date      string         `json:"date"`
}

// Result is the outcome of one LoadSummary call.
type Result struct {
	Records []core.Transaction `json:"-"`
	Entries []Entry            `json:"transactions"`
	Summary Summary            `json:"summary"`
	// Skipped counts stored records that failed validation.
	Skipped int `json:"skipped"`
}

type Aggregator struct {
	store     storage.Store
	formatter Formatter
	logger    *log.Logger
	notifier  Notifier

	// serializes read-modify-write appends within this process
	appendMu sync.Mutex
}

type Option func(*Aggregator)

func WithFormatter(f Formatter) Option {
	return func(a *Aggregator) { a.formatter = f }
}

func WithLogger(l *log.Logger) Option {
	return func(a *Aggregator) { a.logger = l.WithComponent(log.ComponentLedger) }
}

func WithNotifier(n Notifier) Option {
	return func(a *Aggregator) { a.notifier = n }
}

func NewAggregator(store storage.Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:     store,
		formatter: DefaultFormatter(),
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Formatter() Formatter {
	return a.formatter
}

// LoadSummary reads identityID's ledger and summarizes it. An absent ledger
// is empty, not an error. Records that fail validation are skipped and
// counted in Result.Skipped.
func (a *Aggregator) LoadSummary(ctx context.Context, identityID string) (Result, error) {
	if strings.TrimSpace(identityID) == "" {
		return Result{}, core.ErrInvalidIdentity
	}

	raw, err := a.readLedger(ctx, identityID)
	if err != nil {
		a.logger.Fields(ctx, slog.LevelError, "Failed to load ledger",
			log.NewFields().WithOperation(log.OpLoad).WithIdentity(identityID).
				WithError(err).WithErrorKind(core.KindOf(err)))
		return Result{}, err
	}

	records := make([]core.Transaction, 0, len(raw))
	skipped := 0
	for i, r := range raw {
		tx, err := decodeRecord(r)
		if err != nil {
			skipped++
			a.logger.WarnContext(ctx, "Skipping malformed record",
				log.FieldIdentityID, identityID,
				"index", i,
				log.FieldErrorKind, core.KindMalformedRecord,
				log.FieldError, err.Error())
			continue
		}
		records = append(records, tx)
	}

	result := Result{
		Records: records,
		Entries: a.entries(records),
		Summary: Summarize(records, a.formatter),
		Skipped: skipped,
	}

	a.logger.Fields(ctx, slog.LevelDebug, "Ledger summarized",
		log.NewFields().WithOperation(log.OpLoad).WithIdentity(identityID).WithLedger(len(records), skipped))
	return result, nil
}

// Append adds tx to identityID's ledger. Records are immutable once written;
// an id already present in the ledger is rejected.
func (a *Aggregator) Append(ctx context.Context, identityID string, tx core.Transaction) error {
	if strings.TrimSpace(identityID) == "" {
		return core.ErrInvalidIdentity
	}
	if err := tx.Validate(); err != nil {
		return err
	}

	a.appendMu.Lock()
	defer a.appendMu.Unlock()

	raw, err := a.readLedger(ctx, identityID)
	if err != nil {
		return err
	}
	for _, r := range raw {
		if recordID(r) == tx.ID {
			return fmt.Errorf("%w: %s", core.ErrDuplicateRecord, tx.ID)
		}
	}

	encoded, err := encodeRecord(tx)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	blob, err := json.Marshal(append(raw, encoded))
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	if err := a.store.Set(ctx, storage.LedgerKey(identityID), string(blob)); err != nil {
		return fmt.Errorf("%w: write ledger: %w", core.ErrStorageUnavailable, err)
	}

	fields := log.NewFields().WithOperation(log.OpAppend).WithIdentity(identityID).
		WithRecord(tx.ID, string(tx.Direction), tx.Amount.String())
	a.logger.Fields(ctx, slog.LevelInfo, "Record appended", fields)

	if a.notifier != nil {
		if err := a.notifier.LedgerChanged(ctx, identityID, tx.ID); err != nil {
			// The record is stored; readers will see it on their next load.
			a.logger.Fields(ctx, slog.LevelWarn, "Failed to publish ledger change",
				log.NewFields().WithOperation(log.OpNotify).WithIdentity(identityID).WithError(err))
		}
	}
	return nil
}

func (a *Aggregator) readLedger(ctx context.Context, identityID string) ([]json.RawMessage, error) {
	blob, ok, err := a.store.Get(ctx, storage.LedgerKey(identityID))
	if err != nil {
		return nil, fmt.Errorf("%w: read ledger: %w", core.ErrStorageUnavailable, err)
	}
	if !ok || strings.TrimSpace(blob) == "" {
		return nil, nil
	}
	raw, err := decodeLedger(blob)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (a *Aggregator) entries(records []core.Transaction) []Entry {
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		cat, _ := core.LookupCategory(r.Category)
		out = append(out, Entry{
			ID:        r.ID,
			Name:      r.Name,
			Amount:    a.formatter.Amount(r.Amount),
			Direction: r.Direction,
			Category:  cat,
			Date:      a.formatter.EntryDate(r.Date),
		})
	}
	return out
}
