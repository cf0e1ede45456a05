package core

import (
	"context"
	"errors"
)

// Error taxonomy shared by the session manager and the ledger aggregator.
var (
	// ErrAuthCancelled is a normal outcome: the user backed out of sign-in.
	ErrAuthCancelled      = errors.New("auth cancelled")
	ErrAuthExchangeFailed = errors.New("auth exchange failed")
	ErrInvalidIdentity    = errors.New("invalid identity")
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrMalformedRecord marks a single stored record that was skipped.
	ErrMalformedRecord = errors.New("malformed record")
	ErrCorruptLedger   = errors.New("corrupt ledger")
	ErrDuplicateRecord = errors.New("duplicate record")
)

const (
	KindAuthCancelled      = "AuthCancelled"
	KindAuthExchangeFailed = "AuthExchangeFailed"
	KindInvalidIdentity    = "InvalidIdentity"
	KindStorageUnavailable = "StorageUnavailable"
	KindMalformedRecord    = "MalformedRecord"
	KindCorruptLedger      = "CorruptLedger"
	KindDuplicateRecord    = "DuplicateRecord"
	KindValidation         = "Validation"
	KindCancelled          = "Cancelled"
	KindInternal           = "Internal"
)

// KindOf names the taxonomy entry err belongs to.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthCancelled):
		return KindAuthCancelled
	case errors.Is(err, ErrAuthExchangeFailed):
		return KindAuthExchangeFailed
	case errors.Is(err, ErrInvalidIdentity):
		return KindInvalidIdentity
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	case errors.Is(err, ErrMalformedRecord):
		return KindMalformedRecord
	case errors.Is(err, ErrCorruptLedger):
		return KindCorruptLedger
	case errors.Is(err, ErrDuplicateRecord):
		return KindDuplicateRecord
	case IsValidation(err):
		return KindValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	}
	return KindInternal
}

// IsValidation reports whether err comes from record validation.
func IsValidation(err error) bool {
	for _, target := range []error{ErrEmptyID, ErrEmptyName, ErrInvalidAmount, ErrInvalidDirection, ErrInvalidCategory, ErrInvalidDate, ErrNameTooLong} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
