// Package output provides styling helpers for terminal output.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles renders the fixed palette used across the CLI. Each renderer is
// bound to its writer, so colors degrade automatically when the writer is
// not a terminal.
type Styles struct {
	success  lipgloss.Style
	err      lipgloss.Style
	filePath lipgloss.Style
	account  lipgloss.Style
	amount   lipgloss.Style
	keyword  lipgloss.Style
	dim      lipgloss.Style
	warning  lipgloss.Style
}

// NewStyles creates the style set for the given writer.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	return &Styles{
		success:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		err:      r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		filePath: r.NewStyle().Foreground(lipgloss.Color("6")),
		account:  r.NewStyle().Foreground(lipgloss.Color("3")),
		amount:   r.NewStyle().Foreground(lipgloss.Color("5")),
		keyword:  r.NewStyle().Bold(true),
		dim:      r.NewStyle().Faint(true),
		warning:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

// Success styles a success message (green, bold).
func (s *Styles) Success(text string) string { return s.success.Render(text) }

// Error styles an error message (red, bold).
func (s *Styles) Error(text string) string { return s.err.Render(text) }

// FilePath styles a file path (cyan).
func (s *Styles) FilePath(text string) string { return s.filePath.Render(text) }

// Account styles an account name (yellow).
func (s *Styles) Account(text string) string { return s.account.Render(text) }

// Amount styles an amount or currency (magenta).
func (s *Styles) Amount(text string) string { return s.amount.Render(text) }

// Keyword styles a keyword (bold).
func (s *Styles) Keyword(text string) string { return s.keyword.Render(text) }

// Dim styles secondary information (faint).
func (s *Styles) Dim(text string) string { return s.dim.Render(text) }

// Warning styles a warning (yellow, bold).
func (s *Styles) Warning(text string) string { return s.warning.Render(text) }

// TerminalWidth returns the column width of the terminal behind w, or the
// fallback when w is not a terminal.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}
