package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/storage"
	"myfinances/internal/storage/memory"
)

const aprilLedger = `[
	{"id":"a","name":"Salary","amount":100,"direction":"credit","category":"salary","date":"2024-04-01"},
	{"id":"b","name":"Lunch","amount":40,"direction":"debit","category":"food","date":"2024-04-10"}
]`

type brokenStore struct{}

var errDisk = errors.New("disk unavailable")

func (brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, errDisk }
func (brokenStore) Set(context.Context, string, string) error         { return errDisk }
func (brokenStore) Remove(context.Context, string) error              { return errDisk }

type recordingNotifier struct {
	calls []string
	err   error
}

func (n *recordingNotifier) LedgerChanged(_ context.Context, identityID, recordID string) error {
	n.calls = append(n.calls, identityID+"/"+recordID)
	return n.err
}

func newTestAggregator(store storage.Store, opts ...Option) *Aggregator {
	return NewAggregator(store, append([]Option{WithLogger(log.Discard())}, opts...)...)
}

func TestLoadSummaryExample(t *testing.T) {
	store := memory.NewWithData(map[string]string{storage.LedgerKey("u1"): aprilLedger})
	agg := newTestAggregator(store)

	res, err := agg.LoadSummary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}

	s := res.Summary
	if !s.Credit.Total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("credit total = %s, want 100", s.Credit.Total)
	}
	if !s.Debit.Total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("debit total = %s, want 40", s.Debit.Total)
	}
	if !s.Net.Total.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("net total = %s, want 60", s.Net.Total)
	}
	for name, pair := range map[string][2]string{
		"credit": {s.Credit.Amount, "100,00"},
		"debit":  {s.Debit.Amount, "40,00"},
		"net":    {s.Net.Amount, "60,00"},
	} {
		if !strings.Contains(pair[0], pair[1]) {
			t.Fatalf("%s amount = %q, want it to contain %q", name, pair[0], pair[1])
		}
	}
	if s.Credit.LastActivity != "01 de abril" {
		t.Fatalf("credit marker = %q", s.Credit.LastActivity)
	}
	if s.Debit.LastActivity != "10 de abril" {
		t.Fatalf("debit marker = %q", s.Debit.LastActivity)
	}
	if s.Net.LastActivity != "01 a 10 de abril" {
		t.Fatalf("net marker = %q", s.Net.LastActivity)
	}
	if len(res.Entries) != 2 || res.Entries[0].Date != "01/04/24" || res.Entries[0].Category.Name != "Salário" {
		t.Fatalf("unexpected entries: %+v", res.Entries)
	}
}

func TestLoadSummaryEmptyLedger(t *testing.T) {
	agg := newTestAggregator(memory.New())

	res, err := agg.LoadSummary(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	s := res.Summary
	if !s.Credit.Total.IsZero() || !s.Debit.Total.IsZero() || !s.Net.Total.IsZero() {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	for _, h := range []Highlight{s.Credit, s.Debit, s.Net} {
		if h.LastActivity != "Não há transações" {
			t.Fatalf("marker = %q, want no-activity sentinel", h.LastActivity)
		}
	}
	if len(res.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(res.Entries))
	}
}

func TestLoadSummaryOrderIndependent(t *testing.T) {
	reversed := `[
		{"id":"b","name":"Lunch","amount":40,"direction":"debit","category":"food","date":"2024-04-10"},
		{"id":"a","name":"Salary","amount":100,"direction":"credit","category":"salary","date":"2024-04-01"}
	]`
	store := memory.NewWithData(map[string]string{
		storage.LedgerKey("fwd"): aprilLedger,
		storage.LedgerKey("rev"): reversed,
	})
	agg := newTestAggregator(store)

	fwd, err := agg.LoadSummary(context.Background(), "fwd")
	if err != nil {
		t.Fatalf("LoadSummary fwd: %v", err)
	}
	rev, err := agg.LoadSummary(context.Background(), "rev")
	if err != nil {
		t.Fatalf("LoadSummary rev: %v", err)
	}
	if fwd.Summary.Net.Amount != rev.Summary.Net.Amount ||
		fwd.Summary.Credit.LastActivity != rev.Summary.Credit.LastActivity ||
		fwd.Summary.Debit.LastActivity != rev.Summary.Debit.LastActivity {
		t.Fatalf("summaries differ: %+v vs %+v", fwd.Summary, rev.Summary)
	}
}

func TestLoadSummaryExactDecimalSums(t *testing.T) {
	blob := `[
		{"id":"a","name":"x","amount":"0.1","direction":"credit","category":"salary","date":"2024-04-01"},
		{"id":"b","name":"y","amount":"0.2","direction":"credit","category":"salary","date":"2024-04-02"}
	]`
	agg := newTestAggregator(memory.NewWithData(map[string]string{storage.LedgerKey("u"): blob}))

	res, err := agg.LoadSummary(context.Background(), "u")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if !res.Summary.Credit.Total.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("credit total = %s, want 0.3", res.Summary.Credit.Total)
	}
}

func TestLoadSummarySkipsMalformedRecords(t *testing.T) {
	blob := `[
		{"id":"a","name":"Salary","amount":100,"direction":"credit","category":"salary","date":"2024-04-01"},
		{"id":"b","name":"Bad amount","amount":"abc","direction":"debit","category":"food","date":"2024-04-02"},
		{"id":"c","name":"Negative","amount":-5,"direction":"debit","category":"food","date":"2024-04-03"},
		{"id":"d","name":"Unknown category","amount":5,"direction":"debit","category":"rent","date":"2024-04-04"},
		{"id":"e","name":"No direction","amount":5,"category":"food","date":"2024-04-05"},
		{"id":"f","name":"Bad date","amount":5,"direction":"debit","category":"food","date":"yesterday"},
		"not an object",
		{"id":"g","name":"Legacy","amount":10,"type":"negative","category":"car","date":"2024-04-06"}
	]`
	agg := newTestAggregator(memory.NewWithData(map[string]string{storage.LedgerKey("u"): blob}))

	res, err := agg.LoadSummary(context.Background(), "u")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if res.Skipped != 6 {
		t.Fatalf("skipped = %d, want 6", res.Skipped)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if !res.Summary.Debit.Total.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("debit total = %s, want 10", res.Summary.Debit.Total)
	}
	if res.Summary.Debit.LastActivity != "06 de abril" {
		t.Fatalf("debit marker = %q", res.Summary.Debit.LastActivity)
	}
}

func TestLoadSummaryErrors(t *testing.T) {
	tests := []struct {
		name     string
		store    storage.Store
		identity string
		want     error
	}{
		{"blank identity", memory.New(), "  ", core.ErrInvalidIdentity},
		{"storage down", brokenStore{}, "u", core.ErrStorageUnavailable},
		{"corrupt blob", memory.NewWithData(map[string]string{storage.LedgerKey("u"): "{oops"}), "u", core.ErrCorruptLedger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestAggregator(tt.store).LoadSummary(context.Background(), tt.identity)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIdentitiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator(memory.New())

	tx := core.Transaction{
		ID:        "r1",
		Name:      "Salary",
		Amount:    decimal.NewFromInt(500),
		Direction: core.Credit,
		Category:  "salary",
		Date:      core.NewDate(2024, 4, 5),
	}
	if err := agg.Append(ctx, "alice", tx); err != nil {
		t.Fatalf("Append: %v", err)
	}

	bob, err := agg.LoadSummary(ctx, "bob")
	if err != nil {
		t.Fatalf("LoadSummary bob: %v", err)
	}
	if len(bob.Records) != 0 || !bob.Summary.Credit.Total.IsZero() {
		t.Fatalf("bob sees alice's records: %+v", bob)
	}

	alice, err := agg.LoadSummary(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadSummary alice: %v", err)
	}
	if len(alice.Records) != 1 || alice.Records[0].ID != "r1" {
		t.Fatalf("alice records = %+v", alice.Records)
	}
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	store := memory.NewWithData(map[string]string{storage.LedgerKey("u"): aprilLedger})
	agg := newTestAggregator(store, WithNotifier(notifier))

	tx := core.Transaction{
		ID:        "c",
		Name:      "Fuel",
		Amount:    decimal.RequireFromString("12.5"),
		Direction: core.Debit,
		Category:  "car",
		Date:      core.NewDate(2024, 4, 16),
	}
	if err := agg.Append(ctx, "u", tx); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := agg.Append(ctx, "u", tx); !errors.Is(err, core.ErrDuplicateRecord) {
		t.Fatalf("second Append = %v, want ErrDuplicateRecord", err)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "u/c" {
		t.Fatalf("notifier calls = %v", notifier.calls)
	}

	res, err := agg.LoadSummary(ctx, "u")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if !res.Summary.Debit.Total.Equal(decimal.RequireFromString("52.5")) {
		t.Fatalf("debit total = %s, want 52.5", res.Summary.Debit.Total)
	}
	if res.Summary.Net.LastActivity != "01 a 16 de abril" {
		t.Fatalf("net marker = %q", res.Summary.Net.LastActivity)
	}
}

func TestAppendKeepsMalformedNeighbours(t *testing.T) {
	ctx := context.Background()
	blob := `[{"id":"x","amount":"abc"}]`
	store := memory.NewWithData(map[string]string{storage.LedgerKey("u"): blob})
	agg := newTestAggregator(store)

	tx := core.Transaction{ID: "y", Name: "Book", Amount: decimal.NewFromInt(30), Direction: core.Debit, Category: "studies", Date: core.NewDate(2024, 5, 2)}
	if err := agg.Append(ctx, "u", tx); err != nil {
		t.Fatalf("Append: %v", err)
	}

	stored, _, _ := store.Get(ctx, storage.LedgerKey("u"))
	if !strings.Contains(stored, `"abc"`) {
		t.Fatalf("malformed element was dropped: %s", stored)
	}
	res, err := agg.LoadSummary(ctx, "u")
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if res.Skipped != 1 || len(res.Records) != 1 {
		t.Fatalf("skipped=%d records=%d", res.Skipped, len(res.Records))
	}
}

func TestAppendErrors(t *testing.T) {
	valid := core.Transaction{ID: "r", Name: "n", Amount: decimal.NewFromInt(1), Direction: core.Credit, Category: "salary", Date: core.NewDate(2024, 1, 1)}
	invalid := valid
	invalid.Category = "rent"

	tests := []struct {
		name  string
		store storage.Store
		id    string
		tx    core.Transaction
		want  error
	}{
		{"blank identity", memory.New(), "", valid, core.ErrInvalidIdentity},
		{"invalid record", memory.New(), "u", invalid, core.ErrInvalidCategory},
		{"storage down", brokenStore{}, "u", valid, core.ErrStorageUnavailable},
		{"corrupt blob", memory.NewWithData(map[string]string{storage.LedgerKey("u"): "nope"}), "u", valid, core.ErrCorruptLedger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestAggregator(tt.store).Append(context.Background(), tt.id, tt.tx)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNotifierFailureDoesNotFailAppend(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("broker down")}
	agg := newTestAggregator(memory.New(), WithNotifier(notifier))

	tx := core.Transaction{ID: "r", Name: "n", Amount: decimal.NewFromInt(1), Direction: core.Credit, Category: "salary", Date: core.NewDate(2024, 1, 1)}
	if err := agg.Append(context.Background(), "u", tx); err != nil {
		t.Fatalf("Append: %v", err)
	}
}
