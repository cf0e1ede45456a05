// Package storage is the durable key-value layer: an opaque string-keyed
// get/set/remove over serialized text blobs.
package storage

import (
	"context"
	"errors"
)

const (
	// SessionKey holds the one persisted identity; it is not keyed by user.
	SessionKey = "session-identity"

	ledgerKeyPrefix = "ledger-records:"
)

var ErrEmptyKey = errors.New("empty key")

// Store is the durable storage contract. Get reports absence with ok=false
// and a nil error; errors are reserved for I/O failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// LedgerKey derives the storage key that partitions one identity's records.
func LedgerKey(identityID string) string {
	return ledgerKeyPrefix + identityID
}
