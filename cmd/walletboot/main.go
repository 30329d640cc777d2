package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/walletboot/cmd/walletboot/commands"
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
	"git.home.luguber.info/inful/walletboot/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("walletboot"),
		kong.Description("Wallet startup checks: keychain recovery, version and migration gates, persisted state."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(&commands.Global{Out: os.Stdout}, &cli)
	if err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, nil)
		os.Exit(adapter.Report(os.Stderr, err))
	}
}
