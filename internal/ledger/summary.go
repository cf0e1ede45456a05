package ledger

import (
	"github.com/shopspring/decimal"

	"myfinances/internal/core"
)

// Highlight is one of the three dashboard cards.
type Highlight struct {
	Total        decimal.Decimal `json:"total"`
	Amount       string          `json:"amount"`
	Last         core.Date       `json:"-"`
	LastActivity string          `json:"lastTransaction"`
}

// Summary is derived from the full record set on every load; it is never stored.
type Summary struct {
	Credit Highlight `json:"entries"`
	Debit  Highlight `json:"expenses"`
	Net    Highlight `json:"total"`
}

type totals struct {
	credit, debit         decimal.Decimal
	lastCredit, lastDebit core.Date
}

// reduce sums magnitudes and tracks the latest day per direction. Decimal
// addition is exact, so the result does not depend on record order.
func reduce(records []core.Transaction) totals {
	t := totals{credit: decimal.Zero, debit: decimal.Zero}
	for _, r := range records {
		switch r.Direction {
		case core.Credit:
			t.credit = t.credit.Add(r.Amount)
			if r.Date.After(t.lastCredit) {
				t.lastCredit = r.Date
			}
		case core.Debit:
			t.debit = t.debit.Add(r.Amount)
			if r.Date.After(t.lastDebit) {
				t.lastDebit = r.Date
			}
		}
	}
	return t
}

// Summarize reduces records and formats the result with f.
func Summarize(records []core.Transaction, f Formatter) Summary {
	t := reduce(records)
	net := t.credit.Sub(t.debit)

	anchor := t.lastDebit
	if f.NetAnchor == NetAnchorLatest && t.lastCredit.After(anchor) {
		anchor = t.lastCredit
	}

	return Summary{
		Credit: Highlight{
			Total:        t.credit,
			Amount:       f.Amount(t.credit),
			Last:         t.lastCredit,
			LastActivity: f.Marker(t.lastCredit),
		},
		Debit: Highlight{
			Total:        t.debit,
			Amount:       f.Amount(t.debit),
			Last:         t.lastDebit,
			LastActivity: f.Marker(t.lastDebit),
		},
		Net: Highlight{
			Total:        net,
			Amount:       f.Amount(net),
			Last:         anchor,
			LastActivity: f.Interval(anchor),
		},
	}
}
