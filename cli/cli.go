// Package cli implements the beancount command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/NateJackDev/beancount/loader"
	"github.com/NateJackDev/beancount/output"
	"github.com/NateJackDev/beancount/parser"
)

// Set at build time through -ldflags.
var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines flags available to all commands.
type Globals struct {
	Telemetry bool `help:"Show timing telemetry for operations."`
}

// Commands is the root of the command tree.
type Commands struct {
	Globals

	Check CheckCmd `cmd:"" help:"Parse and validate a beancount input file."`
	Dump  DumpCmd  `cmd:"" help:"Parse a beancount input file and dump its directives."`
}

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"
)

func printSuccess(w io.Writer, styles *output.Styles, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Success(successSymbol), message)
}

func printError(w io.Writer, styles *output.Styles, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Error(errorSymbol), styles.Error(message))
}

func printInfof(w io.Writer, styles *output.Styles, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Dim(infoSymbol), fmt.Sprintf(format, args...))
}

// FileOrStdin accepts either a file path or "-" for stdin. An omitted
// argument also reads stdin. Stdin contents are captured at flag-decode
// time so commands see a stable snapshot.
type FileOrStdin struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		return f.readStdin()
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	return nil
}

func (f *FileOrStdin) readStdin() error {
	contents, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}
	f.Filename = "<stdin>"
	f.Contents = contents
	return nil
}

// IsStdin reports whether the input came from stdin.
func (f *FileOrStdin) IsStdin() bool { return f.Filename == "<stdin>" }

// Name returns a short display name for the input.
func (f *FileOrStdin) Name() string {
	if f.Filename == "" || f.IsStdin() {
		return "<stdin>"
	}
	return filepath.Base(f.Filename)
}

// Load runs the loader on the input. When the argument was omitted
// entirely, stdin is read here.
func (f *FileOrStdin) Load(ctx context.Context) (*parser.Result, error) {
	if f.Filename == "" {
		if err := f.readStdin(); err != nil {
			return nil, err
		}
	}
	if f.IsStdin() {
		return loader.LoadBytes(ctx, f.Filename, f.Contents), nil
	}
	return loader.Load(ctx, f.Filename)
}

// Source returns the raw input for error rendering.
func (f *FileOrStdin) Source() ([]byte, error) {
	if f.IsStdin() {
		return f.Contents, nil
	}
	return os.ReadFile(f.Filename)
}
