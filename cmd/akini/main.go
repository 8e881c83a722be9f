package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/akini/cmd/akini/commands"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("akini"),
		kong.Description("Component-based static site builder"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := parser.Run(global, cli); err != nil {
		adapter := foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.HandleError(err))
	}
}
