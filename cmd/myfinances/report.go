package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"myfinances/internal/core"
	"myfinances/internal/ledger"
)

// markdownReport lays the summary out as a markdown document: the three
// highlight cards as a table, then the transaction list.
func markdownReport(id core.Identity, res ledger.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", displayName(id))

	s := res.Summary
	b.WriteString("| | Valor | Última transação |\n|---|---:|---|\n")
	fmt.Fprintf(&b, "| Entradas | %s | %s |\n", s.Credit.Amount, s.Credit.LastActivity)
	fmt.Fprintf(&b, "| Saídas | %s | %s |\n", s.Debit.Amount, s.Debit.LastActivity)
	fmt.Fprintf(&b, "| **Total** | **%s** | %s |\n", s.Net.Amount, s.Net.LastActivity)

	b.WriteString("\n## Listagem\n\n")
	if len(res.Entries) == 0 {
		b.WriteString("_Não há transações._\n")
		return b.String()
	}
	b.WriteString("| Data | Nome | Categoria | Valor |\n|---|---|---|---:|\n")
	for _, e := range res.Entries {
		amount := e.Amount
		if e.Direction == core.Debit {
			amount = "- " + amount
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", e.Date, escapeCell(e.Name), e.Category.Name, amount)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(&b, "\n> %d registro(s) ilegível(is) ignorado(s).\n", res.Skipped)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
