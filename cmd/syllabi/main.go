package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/syllabi/cmd/syllabi/commands"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("syllabi"),
		kong.Description("Render discipline pages from curriculum data and publish them with a linked program index."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	global := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	if err := parser.Run(global, cli); err != nil {
		stop()
		errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
