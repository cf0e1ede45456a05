package main

import (
	"errors"
	"strings"
	"testing"

	"myfinances/internal/core"
	"myfinances/internal/ledger"
)

func TestMarkdownReport(t *testing.T) {
	res := ledger.Result{
		Entries: []ledger.Entry{
			{Name: "Salário", Amount: "R$ 100,00", Direction: core.Credit, Category: core.Category{Name: "Salário"}, Date: "01/04/24"},
			{Name: "Feira | mercado", Amount: "R$ 40,00", Direction: core.Debit, Category: core.Category{Name: "Alimentação"}, Date: "10/04/24"},
		},
		Summary: ledger.Summary{
			Credit: ledger.Highlight{Amount: "R$ 100,00", LastActivity: "01 de abril"},
			Debit:  ledger.Highlight{Amount: "R$ 40,00", LastActivity: "10 de abril"},
			Net:    ledger.Highlight{Amount: "R$ 60,00", LastActivity: "01 a 10 de abril"},
		},
		Skipped: 1,
	}

	md := markdownReport(core.Identity{ID: "g-1", Name: "Ana"}, res)
	for _, want := range []string{
		"# Ana",
		"| Entradas | R$ 100,00 | 01 de abril |",
		"| **Total** | **R$ 60,00** | 01 a 10 de abril |",
		"| 10/04/24 | Feira \\| mercado | Alimentação | - R$ 40,00 |",
		"1 registro(s)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownReportEmpty(t *testing.T) {
	md := markdownReport(core.Identity{ID: "a-1", Email: "bia@example.com"}, ledger.Result{})
	if !strings.Contains(md, "# bia@example.com") || !strings.Contains(md, "Não há transações") {
		t.Fatalf("unexpected report:\n%s", md)
	}
}

func TestAddTransaction(t *testing.T) {
	tests := []struct {
		name    string
		cmd     addCmd
		wantErr error
	}{
		{name: "valid", cmd: addCmd{name: "Café", amount: "4,50", direction: "debit", category: "food", date: "2024-04-10"}},
		{name: "bad amount", cmd: addCmd{name: "Café", amount: "abc", direction: "debit", category: "food"}, wantErr: core.ErrInvalidAmount},
		{name: "bad direction", cmd: addCmd{name: "Café", amount: "1", direction: "up-ish", category: "food"}, wantErr: core.ErrInvalidDirection},
		{name: "bad category", cmd: addCmd{name: "Café", amount: "1", direction: "debit", category: "pets"}, wantErr: core.ErrInvalidCategory},
		{name: "bad date", cmd: addCmd{name: "Café", amount: "1", direction: "debit", category: "food", date: "ontem"}, wantErr: core.ErrInvalidDate},
		{name: "no name", cmd: addCmd{amount: "1", direction: "debit", category: "food"}, wantErr: core.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := tt.cmd.transaction()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("transaction() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("transaction() error = %v", err)
			}
			if tx.ID == "" || tx.Amount.String() != "4.5" || tx.Date != core.NewDate(2024, 4, 10) {
				t.Fatalf("transaction = %+v", tx)
			}
		})
	}
}
