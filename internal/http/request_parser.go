package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"myfinances/internal/core"
)

const maxBodyBytes = 64 << 10

// errBadRequest marks bodies that could not be decoded at all, as opposed
// to well-formed bodies carrying invalid values.
var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object from the body into dst. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("%w: content type %q is not application/json", errBadRequest, ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// flexString accepts a JSON string or number, keeping the literal text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

type googleSignInRequest struct {
	AccessToken string `json:"accessToken"`
}

type appleSignInRequest struct {
	IdentityToken string `json:"identityToken"`
	GivenName     string `json:"givenName"`
}

// TransactionRequest is the body of POST /api/transactions. Date is
// optional and defaults to the current day.
type TransactionRequest struct {
	Name      string     `json:"name"`
	Amount    flexString `json:"amount"`
	Direction string     `json:"direction"`
	Category  string     `json:"category"`
	Date      string     `json:"date,omitempty"`
}

// Transaction validates the request and builds a new record with a fresh id.
func (req TransactionRequest) Transaction(today core.Date) (core.Transaction, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	direction, err := core.ParseDirection(req.Direction)
	if err != nil {
		return core.Transaction{}, err
	}

	date := today
	if s := strings.TrimSpace(req.Date); s != "" {
		if date, err = core.ParseDate(s); err != nil {
			return core.Transaction{}, err
		}
	}

	tx := core.Transaction{
		ID:        core.NewTransactionID(),
		Name:      sanitizeInput(req.Name),
		Amount:    amount,
		Direction: direction,
		Category:  strings.TrimSpace(req.Category),
		Date:      date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}
