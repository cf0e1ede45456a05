package ledger

import (
	"fmt"
	"strings"

	"github.com/goodsign/monday"
	"github.com/shopspring/decimal"

	"myfinances/internal/core"
)

// NetAnchor selects which day closes the net total's activity interval.
type NetAnchor string

const (
	// NetAnchorDebit closes the interval on the last debit, even when a
	// credit is more recent. This is how the dashboard has always shown it.
	NetAnchorDebit NetAnchor = "debit"
	// NetAnchorLatest closes the interval on the most recent record.
	NetAnchorLatest NetAnchor = "latest"
)

const (
	markerLayout = "02 de January"
	entryLayout  = "02/01/06"
)

// Formatter turns totals and dates into display text.
type Formatter struct {
	Currency   string
	Locale     monday.Locale
	NoActivity string
	NetAnchor  NetAnchor
	// NetStartDay is the fixed first day of the net interval.
	NetStartDay int
}

func DefaultFormatter() Formatter {
	return Formatter{
		Currency:    core.DefaultCurrency,
		Locale:      monday.LocalePtBR,
		NoActivity:  "Não há transações",
		NetAnchor:   NetAnchorDebit,
		NetStartDay: 1,
	}
}

func ParseNetAnchor(s string) (NetAnchor, error) {
	switch NetAnchor(s) {
	case NetAnchorDebit, NetAnchorLatest:
		return NetAnchor(s), nil
	}
	return "", fmt.Errorf("unknown net anchor %q", s)
}

func (f Formatter) Amount(d decimal.Decimal) string {
	return core.FormatMoney(d, f.Currency)
}

// Marker renders a "last transaction" day, e.g. "01 de abril". The zero
// date means the partition had no records.
func (f Formatter) Marker(d core.Date) string {
	if d.IsEmpty() {
		return f.NoActivity
	}
	// Portuguese month names are lowercase in running text.
	return strings.ToLower(monday.Format(d.Time, markerLayout, f.Locale))
}

// Interval renders the net activity window, e.g. "01 a 16 de abril".
func (f Formatter) Interval(end core.Date) string {
	if end.IsEmpty() {
		return f.NoActivity
	}
	return fmt.Sprintf("%02d a %s", f.NetStartDay, f.Marker(end))
}

// EntryDate renders a record date for the transaction list.
func (f Formatter) EntryDate(d core.Date) string {
	return d.Format(entryLayout)
}
