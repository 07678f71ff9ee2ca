package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/NateJackDev/beancount/cli"
)

func main() {
	var commands cli.Commands

	ctx := kong.Parse(&commands,
		kong.Name("beancount"),
		kong.Description("Plain-text double-entry bookkeeping."),
		kong.UsageOnError(),
		kong.Vars{"version": version()},
	)

	err := ctx.Run(&commands.Globals)
	ctx.FatalIfErrorf(err)
}

func version() string {
	if cli.Version == "" {
		return "devel"
	}
	if cli.CommitSHA != "" {
		return fmt.Sprintf("%s (%s)", cli.Version, cli.CommitSHA)
	}
	return cli.Version
}
