package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldOperation  = "operation"
	FieldIdentityID = "identity_id"
	FieldProvider   = "provider"
	FieldRecordID   = "record_id"
	FieldRecords    = "records"
	FieldSkipped    = "skipped"
	FieldDirection  = "direction"
	FieldAmount     = "amount"
	FieldStorageKey = "storage_key"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentSession = "session"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentAuth    = "auth"
	ComponentCache   = "cache"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpSignIn   = "sign_in"
	OpSignOut  = "sign_out"
	OpRestore  = "restore"
	OpLoad     = "load"
	OpAppend   = "append"
	OpNotify   = "notify"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error text; nil errors add nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorKind adds the taxonomy name of an error.
func (f LogFields) WithErrorKind(kind string) LogFields {
	if kind != "" {
		f[FieldErrorKind] = kind
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithIdentity(identityID string) LogFields {
	f[FieldIdentityID] = identityID
	return f
}

func (f LogFields) WithProvider(provider string) LogFields {
	f[FieldProvider] = provider
	return f
}

// WithRecord adds record-related fields
func (f LogFields) WithRecord(id, direction, amount string) LogFields {
	f[FieldRecordID] = id
	f[FieldDirection] = direction
	f[FieldAmount] = amount
	return f
}

// WithLedger adds the counts of a ledger load.
func (f LogFields) WithLedger(records, skipped int) LogFields {
	f[FieldRecords] = records
	f[FieldSkipped] = skipped
	return f
}

// ToSlice converts LogFields to a key-sorted slice for slog
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
