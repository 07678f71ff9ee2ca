// Package loader loads a ledger from disk: it parses the top-level file,
// recursively resolves include directives, books the merged transactions
// and sorts the final directive stream by date.
//
// Includes are resolved relative to the directory of the file naming
// them, and a file included more than once is loaded once. Each file is
// parsed with its own isolated builder, so a catastrophic failure in one
// included file cannot corrupt entries collected from another; the
// per-file results are merged upward afterwards. An unreadable include
// contributes one error and loading continues.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/booking"
	"github.com/NateJackDev/beancount/parser"
	"github.com/NateJackDev/beancount/telemetry"
)

// Load reads and processes a ledger file and everything it includes. The
// returned result holds the booked, date-sorted directives, every error
// found anywhere in the tree, and the merged options. The error return is
// non-nil only when the top-level file itself cannot be read.
func Load(ctx context.Context, filename string) (*parser.Result, error) {
	timer := telemetry.FromContext(ctx).Start("Load " + filepath.Base(filename))
	defer timer.End()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return load(ctx, filename, data), nil
}

// LoadBytes processes ledger source already held in memory. Includes are
// still resolved relative to the given filename.
func LoadBytes(ctx context.Context, filename string, data []byte) *parser.Result {
	timer := telemetry.FromContext(ctx).Start("Load " + filepath.Base(filename))
	defer timer.End()

	return load(ctx, filename, data)
}

// LoadString processes ledger source held in a string. Used mostly by
// tests; includes resolve relative to the working directory.
func LoadString(ctx context.Context, source string) *parser.Result {
	return LoadBytes(ctx, "<string>", []byte(source))
}

func load(ctx context.Context, filename string, data []byte) *parser.Result {
	state := &loadState{visited: make(map[string]bool)}
	if abs, err := filepath.Abs(filename); err == nil {
		state.visited[abs] = true
	}

	result := state.parse(ctx, filename, data)
	state.resolveIncludes(ctx, result, filepath.Dir(filename))

	timer := telemetry.FromContext(ctx).Start("Book transactions")
	result.Errors = append(result.Errors, booking.Book(result.Directives, result.Options)...)
	timer.End()

	ast.Sort(result.Directives)
	return result
}

// loadState tracks which files have been loaded, keyed by absolute path.
type loadState struct {
	visited map[string]bool
}

func (s *loadState) parse(ctx context.Context, filename string, data []byte) *parser.Result {
	timer := telemetry.FromContext(ctx).Start("Parse " + filepath.Base(filename))
	defer timer.End()

	return parser.Parse(ctx, filename, data)
}

// resolveIncludes loads the files a result's options name, depth first,
// and merges each child's directives, errors and options into the parent.
func (s *loadState) resolveIncludes(ctx context.Context, parent *parser.Result, baseDir string) {
	for _, include := range parent.Options.Includes() {
		select {
		case <-ctx.Done():
			parent.Errors = append(parent.Errors, ctx.Err())
			return
		default:
		}

		path := include
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if s.visited[abs] {
			continue
		}
		s.visited[abs] = true

		data, err := os.ReadFile(path)
		if err != nil {
			parent.Errors = append(parent.Errors, fmt.Errorf("failed to read included file %s: %w", path, err))
			continue
		}

		child := s.parse(ctx, path, data)
		s.resolveIncludes(ctx, child, filepath.Dir(path))

		parent.Directives = append(parent.Directives, child.Directives...)
		parent.Errors = append(parent.Errors, child.Errors...)
		parent.Options.Merge(child.Options)
	}
}
