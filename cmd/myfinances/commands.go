package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"myfinances/internal/auth/apple"
	"myfinances/internal/auth/google"
	"myfinances/internal/core"
	"myfinances/internal/ledger"
	"myfinances/internal/session"
)

// run opens the app for the duration of fn and reports errors on stderr.
func run(ctx context.Context, fn func(a *app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type signInCmd struct {
	provider      string
	identityToken string
	givenName     string
}

func (*signInCmd) Name() string { return "signin" }
func (*signInCmd) Synopsis() string { return "sign in with Google or Apple" }
func (*signInCmd) Usage() string {
	return `myfinances signin [-provider google] | -provider apple -token <identity-token> [-name <given-name>]

  Google opens a consent page and waits for the redirect on
  OAUTH_REDIRECT_PORT. Apple takes the identity token the native prompt
  returned. Press Ctrl-C to cancel.
`
}

func (c *signInCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.provider, "provider", google.ProviderName, "Sign-in provider (google, apple).")
	f.StringVar(&c.identityToken, "token", "", "Apple identity token.")
	f.StringVar(&c.givenName, "name", "", "Given name shared by the Apple prompt.")
}

func (c *signInCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		provider, cleanup, err := c.providerFor(ctx, a)
		if err != nil {
			return err
		}
		defer cleanup()

		id, err := a.sessions.SignIn(ctx, provider)
		if errors.Is(err, core.ErrAuthCancelled) {
			fmt.Println("Sign-in cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (%s).\n", displayName(id), id.Email)
		return nil
	})
}

func (c *signInCmd) providerFor(ctx context.Context, a *app) (session.Provider, func(), error) {
	switch c.provider {
	case google.ProviderName:
		if !a.cfg.GoogleEnabled() {
			return nil, nil, errors.New("google sign-in needs GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_CLIENT_SECRET")
		}
		flow := google.NewFlow(a.cfg.GoogleOAuthClientID, a.cfg.GoogleOAuthClientSecret, a.cfg.OAuthRedirectPort)
		flow.Logger = a.logger
		return google.Provider{Flow: flow}, func() {}, nil
	case apple.ProviderName:
		if a.cfg.AppleClientID == "" {
			return nil, nil, errors.New("apple sign-in needs APPLE_CLIENT_ID")
		}
		v, err := apple.NewJWKSVerifier(ctx, a.cfg.AppleClientID, a.cfg.AppleJWKSURL, a.logger)
		if err != nil {
			return nil, nil, err
		}
		return apple.Provider{
			Verifier:   v,
			Credential: apple.Credential{IdentityToken: c.identityToken, GivenName: c.givenName},
		}, v.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown provider %q", c.provider)
}

type signOutCmd struct{}

func (*signOutCmd) Name() string { return "signout" }
func (*signOutCmd) Synopsis() string { return "forget the signed-in identity" }
func (*signOutCmd) Usage() string { return "myfinances signout\n" }
func (*signOutCmd) SetFlags(*flag.FlagSet) {}
func (*signOutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if err := a.sessions.SignOut(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	})
}

type whoAmICmd struct{}

func (*whoAmICmd) Name() string { return "whoami" }
func (*whoAmICmd) Synopsis() string { return "show the signed-in identity" }
func (*whoAmICmd) Usage() string { return "myfinances whoami\n" }
func (*whoAmICmd) SetFlags(*flag.FlagSet) {}
func (*whoAmICmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		id, ok := a.sessions.Current()
		if !ok {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("%s <%s>\nid: %s\n", displayName(id), id.Email, id.ID)
		return nil
	})
}

type addCmd struct {
	name      string
	amount    string
	direction string
	category  string
	date      string
}

func (*addCmd) Name() string { return "add" }
func (*addCmd) Synopsis() string { return "record a credit or debit" }
func (*addCmd) Usage() string {
	return `myfinances add -name <name> -amount <amount> -direction credit|debit -category <key> [-date YYYY-MM-DD]

  Appends a record to the signed-in ledger. Amounts accept a comma or a dot
  as decimal separator. Run "myfinances categories" for the category keys.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Description of the transaction.")
	f.StringVar(&c.amount, "amount", "", "Positive amount, e.g. 12,50.")
	f.StringVar(&c.direction, "direction", string(core.Debit), "credit or debit.")
	f.StringVar(&c.category, "category", "", "Category key.")
	f.StringVar(&c.date, "date", "", "Transaction day (defaults to today).")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		id, ok := a.sessions.Current()
		if !ok {
			return fmt.Errorf("%w: run \"myfinances signin\" first", core.ErrInvalidIdentity)
		}
		tx, err := c.transaction()
		if err != nil {
			return err
		}
		if err := a.ledger.Append(ctx, id.ID, tx); err != nil {
			return err
		}
		fmt.Printf("Added %s %s on %s.\n", tx.Direction, a.ledger.Formatter().Amount(tx.Amount), tx.Date)
		return nil
	})
}

func (c *addCmd) transaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", c.amount, err)
	}
	direction, err := core.ParseDirection(c.direction)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("direction %q: %w", c.direction, err)
	}
	date := core.Today()
	if c.date != "" {
		if date, err = core.ParseDate(c.date); err != nil {
			return core.Transaction{}, fmt.Errorf("date %q: %w", c.date, err)
		}
	}
	tx := core.Transaction{
		ID:        core.NewTransactionID(),
		Name:      strings.TrimSpace(c.name),
		Amount:    amount,
		Direction: direction,
		Category:  c.category,
		Date:      date,
	}
	return tx, tx.Validate()
}

type summaryCmd struct {
	format string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show the ledger and its totals" }
func (*summaryCmd) Usage() string {
	return `myfinances summary [-format pretty|table|json]

  Loads the signed-in ledger and prints the entries, expenses and total
  cards followed by every transaction.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "pretty", "Output format (pretty, table, json).")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		id, ok := a.sessions.Current()
		if !ok {
			return fmt.Errorf("%w: run \"myfinances signin\" first", core.ErrInvalidIdentity)
		}
		res, err := a.ledger.LoadSummary(ctx, id.ID)
		if err != nil {
			return err
		}

		switch c.format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		case "table":
			return printTable(res)
		case "pretty":
			out, err := renderMarkdown(markdownReport(id, res))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		}
		return fmt.Errorf("unknown format %q", c.format)
	})
}

func printTable(res ledger.Result) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNAME\tCATEGORY\tAMOUNT")
	for _, e := range res.Entries {
		sign := ""
		if e.Direction == core.Debit {
			sign = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s%s\n", e.Date, e.Name, e.Category.Name, sign, e.Amount)
	}
	fmt.Fprintln(w)
	s := res.Summary
	fmt.Fprintf(w, "Entradas\t%s\t%s\n", s.Credit.Amount, s.Credit.LastActivity)
	fmt.Fprintf(w, "Saídas\t%s\t%s\n", s.Debit.Amount, s.Debit.LastActivity)
	fmt.Fprintf(w, "Total\t%s\t%s\n", s.Net.Amount, s.Net.LastActivity)
	if err := w.Flush(); err != nil {
		return err
	}
	if res.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "%d stored record(s) could not be read and were skipped.\n", res.Skipped)
	}
	return nil
}

type categoriesCmd struct{}

func (*categoriesCmd) Name() string { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list category keys" }
func (*categoriesCmd) Usage() string { return "myfinances categories\n" }
func (*categoriesCmd) SetFlags(*flag.FlagSet) {}
func (*categoriesCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	for _, c := range core.Categories() {
		fmt.Printf("%-10s %s\n", c.Key, c.Name)
	}
	return subcommands.ExitSuccess
}

func displayName(id core.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return id.Email
}
