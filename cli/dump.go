package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/NateJackDev/beancount/output"
)

type DumpCmd struct {
	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

// Run loads the file and dumps the booked directive stream as Go values.
// Debugging aid for inspecting what the parser and booking produced.
func (cmd *DumpCmd) Run(kctx *kong.Context, globals *Globals) error {
	result, err := cmd.File.Load(context.Background())
	if err != nil {
		return err
	}

	for _, directive := range result.Directives {
		repr.Println(directive)
	}

	if len(result.Errors) > 0 {
		styles := output.NewStyles(kctx.Stderr)
		_, _ = fmt.Fprintln(kctx.Stderr)
		for _, err := range result.Errors {
			printError(kctx.Stderr, styles, err.Error())
		}
		os.Exit(1)
	}
	return nil
}
