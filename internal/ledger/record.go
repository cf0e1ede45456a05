package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"myfinances/internal/core"
)

// storedRecord is the on-disk shape of one record. Type is the field name
// older app versions used for the direction.
type storedRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    json.RawMessage `json:"amount"`
	Direction string          `json:"direction,omitempty"`
	Type      string          `json:"type,omitempty"`
	Category  string          `json:"category"`
	Date      string          `json:"date"`
}

type outRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Direction core.Direction  `json:"direction"`
	Category  string          `json:"category"`
	Date      core.Date       `json:"date"`
}

// decodeLedger splits a stored blob into its elements without interpreting
// them, so one bad element cannot poison the rest.
func decodeLedger(blob string) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCorruptLedger, err)
	}
	return raw, nil
}

// decodeRecord parses and validates a single stored element.
func decodeRecord(raw json.RawMessage) (core.Transaction, error) {
	var sr storedRecord
	if err := json.Unmarshal(raw, &sr); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrMalformedRecord, err)
	}

	amount, err := parseStoredAmount(sr.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: record %q: %w", core.ErrMalformedRecord, sr.ID, err)
	}

	dirText := sr.Direction
	if dirText == "" {
		dirText = sr.Type
	}
	dir, err := core.ParseDirection(dirText)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: record %q: %w", core.ErrMalformedRecord, sr.ID, err)
	}

	date, err := core.ParseDate(sr.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: record %q: %w", core.ErrMalformedRecord, sr.ID, err)
	}

	tx := core.Transaction{
		ID:        sr.ID,
		Name:      sr.Name,
		Amount:    amount,
		Direction: dir,
		Category:  sr.Category,
		Date:      date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: record %q: %w", core.ErrMalformedRecord, sr.ID, err)
	}
	return tx, nil
}

// parseStoredAmount accepts a JSON number or a decimal string.
func parseStoredAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, core.ErrInvalidAmount
	}
	text := string(raw)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return decimal.Zero, core.ErrInvalidAmount
		}
		text = unquoted
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, core.ErrInvalidAmount
	}
	return d, nil
}

// recordID peeks at an element's id without validating anything else.
func recordID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}

func encodeRecord(tx core.Transaction) (json.RawMessage, error) {
	return json.Marshal(outRecord{
		ID:        tx.ID,
		Name:      tx.Name,
		Amount:    tx.Amount,
		Direction: tx.Direction,
		Category:  tx.Category,
		Date:      tx.Date,
	})
}
