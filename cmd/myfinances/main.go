// Command myfinances signs in and keeps a personal ledger from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"myfinances/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&signInCmd{}, "session")
	commander.Register(&signOutCmd{}, "session")
	commander.Register(&whoAmICmd{}, "session")
	commander.Register(&addCmd{}, "ledger")
	commander.Register(&summaryCmd{}, "ledger")
	commander.Register(&categoriesCmd{}, "ledger")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
