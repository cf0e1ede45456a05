package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

const dateLayout = "2006-01-02"

type (
	// Direction tells whether a record is income (credit) or expense (debit).
	Direction string

	Date struct {
		time.Time
	}

	// Identity is the normalized profile of the signed-in user.
	Identity struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Photo string `json:"photo,omitempty"`
	}

	Transaction struct {
		ID        string
		Name      string
		Amount    decimal.Decimal // non-negative magnitude
		Direction Direction
		Category  string // key into Categories
		Date      Date
	}
)

var (
	ErrEmptyID          = errors.New("empty id")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidDate      = errors.New("invalid date")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
)

// ParseDirection accepts the canonical spellings plus the ones older app
// versions wrote to storage.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "positive", "up":
		return Credit, nil
	case "debit", "negative", "down":
		return Debit, nil
	}
	return "", ErrInvalidDirection
}

func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar day in local time.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate reads YYYY-MM-DD or an RFC 3339 timestamp; the time of day is dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// After reports whether d is a later day than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON writes the day as "YYYY-MM-DD", shadowing time.Time's RFC 3339 form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports the signed-out state.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// NewTransactionID returns a fresh record id.
func NewTransactionID() string {
	return uuid.NewString()
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return ErrNameTooLong
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Direction.Valid() {
		return ErrInvalidDirection
	}
	if _, ok := LookupCategory(t.Category); !ok {
		return ErrInvalidCategory
	}
	return t.Date.Validate()
}
