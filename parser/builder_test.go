package parser

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/NateJackDev/beancount/ast"
)

// explodingBuilder panics on every transaction, exercising the panic
// isolation around builder callbacks.
type explodingBuilder struct {
	*DefaultBuilder
}

func (b *explodingBuilder) Transaction(loc ast.Location, date *ast.Date, flag string, strs []string, tags []ast.Tag, links []ast.Link, kvlist []ast.MetaPair, postings []*ast.Posting) {
	panic("boom")
}

func TestBuilderPanicIsIsolated(t *testing.T) {
	source := []byte(`
2014-01-01 open Assets:Cash

2014-05-05 * "Dinner"
  Assets:Cash  -10.00 USD
  Expenses:Food  10.00 USD

2014-12-31 close Assets:Cash
`)

	builder := &explodingBuilder{NewBuilder("test")}
	result := ParseWithBuilder(context.Background(), "test", source, builder)

	// The transaction is lost; its neighbors survive.
	assert.Equal(t, 2, len(result.Directives))
	assert.Equal(t, "open", result.Directives[0].Kind())
	assert.Equal(t, "close", result.Directives[1].Kind())

	assert.Equal(t, 1, len(result.Errors))
	assert.Contains(t, result.Errors[0].Error(), "internal error in builder: boom")

	parseErr, ok := result.Errors[0].(*ParserError)
	assert.True(t, ok)
	assert.Equal(t, 4, parseErr.Location().Line)
}
