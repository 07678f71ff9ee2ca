package cli

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/output"
)

// contextLines is how many source lines are shown before the error line.
const contextLines = 2

// located is the shape shared by all errors that carry a source location.
type located interface {
	error
	Location() ast.Location
}

// ErrorRenderer formats errors with source context: the offending line,
// a couple of lines before it, and a caret under the error column.
type ErrorRenderer struct {
	sources map[string][]string
	styles  *output.Styles
}

// NewErrorRenderer creates a renderer. The source maps filenames to their
// contents for files already in memory; other files are not re-read and
// render without source context.
func NewErrorRenderer(styles *output.Styles, sources map[string][]byte) *ErrorRenderer {
	r := &ErrorRenderer{
		sources: make(map[string][]string, len(sources)),
		styles:  styles,
	}
	for filename, data := range sources {
		r.sources[filename] = strings.Split(string(data), "\n")
	}
	return r
}

// Render formats a single error.
func (r *ErrorRenderer) Render(err error) string {
	loc, ok := err.(located)
	if !ok {
		return r.styles.Error(err.Error())
	}

	var buf strings.Builder
	buf.WriteString(r.styles.Error(err.Error()))

	location := loc.Location()
	lines, ok := r.sources[location.Filename]
	if !ok || location.Line < 1 || location.Line > len(lines) {
		return buf.String()
	}
	buf.WriteString("\n\n")

	start := location.Line - 1 - contextLines
	if start < 0 {
		start = 0
	}
	for i := start; i < location.Line; i++ {
		buf.WriteString("   ")
		buf.WriteString(r.styles.Dim(lines[i]))
		buf.WriteByte('\n')
	}

	if location.Column > 0 {
		// Align the caret by display width, so wide runes and multi-byte
		// text before the error column don't shift it.
		errorLine := lines[location.Line-1]
		prefix := errorLine
		if location.Column-1 < len(errorLine) {
			prefix = errorLine[:location.Column-1]
		}
		buf.WriteString("   ")
		buf.WriteString(strings.Repeat(" ", runewidth.StringWidth(prefix)))
		buf.WriteString(r.styles.Error("^"))
		buf.WriteByte('\n')
	}

	return buf.String()
}

// RenderAll formats errors sorted by filename and line, separated by
// blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	sorted := make([]error, len(errs))
	copy(sorted, errs)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, iok := sorted[i].(located)
		lj, jok := sorted[j].(located)
		if !iok || !jok {
			return jok
		}
		if li.Location().Filename != lj.Location().Filename {
			return li.Location().Filename < lj.Location().Filename
		}
		return li.Location().Line < lj.Location().Line
	})

	var buf strings.Builder
	for i, err := range sorted {
		buf.WriteString(r.Render(err))
		if i < len(sorted)-1 {
			buf.WriteString("\n\n")
		}
	}
	return buf.String()
}
