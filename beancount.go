// Package beancount is the convenience facade over the ledger toolchain:
// parse a single source buffer, or load a file tree with includes,
// booking and date ordering applied.
package beancount

import (
	"context"

	"github.com/NateJackDev/beancount/loader"
	"github.com/NateJackDev/beancount/parser"
)

// Parse parses a single buffer of ledger source. Includes are recorded in
// the result's options but not loaded, and no booking is applied.
func Parse(ctx context.Context, filename string, source []byte) *parser.Result {
	return parser.Parse(ctx, filename, source)
}

// Load reads a ledger file, resolves its includes, books the transactions
// and returns the date-sorted directive stream.
func Load(ctx context.Context, filename string) (*parser.Result, error) {
	return loader.Load(ctx, filename)
}
