package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.005", true}, // no rounding on input
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatMoneyRoundsOnlyAtTheEnd(t *testing.T) {
	// three thirds of a cent each would lose a cent if rounded one by one
	third := decimal.RequireFromString("0.005")
	sum := third.Add(third).Add(third)
	got := FormatMoney(sum, DefaultCurrency)
	if !strings.Contains(got, "0,02") {
		t.Fatalf("FormatMoney(%s) = %q, want it to contain 0,02", sum, got)
	}

	got = FormatMoney(decimal.NewFromInt(100), DefaultCurrency)
	if !strings.Contains(got, "100,00") {
		t.Fatalf("FormatMoney(100) = %q, want it to contain 100,00", got)
	}

	got = FormatMoney(decimal.NewFromInt(-60), DefaultCurrency)
	if !strings.HasPrefix(got, "-") || !strings.Contains(got, "60,00") {
		t.Fatalf("FormatMoney(-60) = %q, want a negative 60,00", got)
	}
}
