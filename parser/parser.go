// Package parser implements the ledger file parser: a zero-copy lexer, an
// arithmetic expression evaluator and a recursive descent parser that
// feeds a Builder.
//
// The parser never aborts on bad input. Lexical errors, syntax errors and
// semantic errors found while building entries are all recorded on the
// builder's error list, the offending directive is dropped, and parsing
// resumes at the next line that can start a directive. A single pass
// therefore reports every independent problem in a file.
package parser

import (
	"context"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/options"
	"github.com/NateJackDev/beancount/telemetry"
)

// Result is the outcome of parsing one source file: the entries in source
// order, every error encountered, and the accumulated options. All three
// are always populated; errors never suppress the directives that parsed
// cleanly.
type Result struct {
	Directives ast.Directives
	Errors     []error
	Options    *options.Map
}

// Parser consumes the token stream produced by the lexer and drives a
// Builder. It holds no state beyond the current token position, so a
// failed rule can always be abandoned and parsing resumed further on.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
	interner *Interner
	builder  Builder
}

// Parse parses ledger source using the default builder. The filename is
// used for error locations and metadata provenance only; no file is read.
func Parse(ctx context.Context, filename string, source []byte) *Result {
	return ParseWithBuilder(ctx, filename, source, NewBuilder(filename))
}

// ParseString parses ledger source held in a string. Used mostly by tests.
func ParseString(ctx context.Context, source string) *Result {
	return Parse(ctx, "<string>", []byte(source))
}

// ParseWithBuilder parses ledger source, driving the given builder. The
// builder receives one callback per grammar rule and owns the accumulated
// entries, errors and options.
func ParseWithBuilder(ctx context.Context, filename string, source []byte, builder Builder) *Result {
	timer := telemetry.FromContext(ctx).Start("Parse " + filename)
	defer timer.End()

	lexer := NewLexer(source, filename)
	tokens := lexer.ScanAll()
	for _, err := range lexer.Errors() {
		builder.AddError(err)
	}

	p := &Parser{
		source:   source,
		filename: filename,
		tokens:   tokens,
		interner: lexer.Interner(),
		builder:  builder,
	}
	p.parseFile()

	return builder.Result()
}

// parseFile is the top-level loop. Every iteration either parses one
// complete directive or recovers past a malformed one.
func (p *Parser) parseFile() {
	for !p.isAtEnd() {
		tok := p.peek()
		switch tok.Type {
		case ERROR:
			// Already reported by the lexer.
			p.advance()
			p.synchronize()

		case DATE:
			p.recover(p.parseDated())

		case OPTION:
			p.recover(p.parseOption())

		case INCLUDE:
			p.recover(p.parseInclude())

		case PLUGIN:
			p.recover(p.parsePlugin())

		case PUSHTAG:
			p.recover(p.parsePushtag())

		case POPTAG:
			p.recover(p.parsePoptag())

		default:
			p.recover(p.errorAtToken(tok, "unexpected token '%s' at top level", tok.String(p.source)))
		}
	}
}

// recover records a parse failure and skips to the next directive start.
// The suppression sentinel drops the rule without a second report.
func (p *Parser) recover(err error) {
	if err == nil {
		return
	}
	if err != errSuppressed {
		p.builder.AddError(err)
	}
	p.synchronize()
}

// synchronize discards tokens until one that can start a directive: a
// date or an undated keyword at the beginning of a line. Guaranteed to
// make progress because the failed rule consumed at least its leading
// token before giving up.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		tok := p.peek()
		if tok.Column == 1 {
			switch tok.Type {
			case DATE, OPTION, INCLUDE, PLUGIN, PUSHTAG, POPTAG:
				return
			}
		}
		p.advance()
	}
}

// parseDated dispatches a directive introduced by a date.
func (p *Parser) parseDated() error {
	dateTok := p.advance()
	loc := p.location(dateTok)

	date, err := ast.ParseDate(dateTok.String(p.source))
	if err != nil {
		return p.errorAtToken(dateTok, "%v", err)
	}

	tok := p.peek()
	switch tok.Type {
	case OPEN:
		return p.parseOpen(loc, date)
	case CLOSE:
		return p.parseClose(loc, date)
	case COMMODITY:
		return p.parseCommodity(loc, date)
	case PAD:
		return p.parsePad(loc, date)
	case BALANCE:
		return p.parseBalance(loc, date)
	case NOTE:
		return p.parseNote(loc, date)
	case DOCUMENT:
		return p.parseDocument(loc, date)
	case PRICE:
		return p.parsePrice(loc, date)
	case EVENT:
		return p.parseEvent(loc, date)
	case QUERY:
		return p.parseQuery(loc, date)
	case TXN, ASTERISK, EXCLAIM:
		return p.parseTransaction(loc, date)
	}

	return p.errorAtToken(tok, "expected directive keyword or transaction flag after date, got '%s'", tok.String(p.source))
}

// callBuilder invokes a builder callback with panic isolation. A panic in
// the builder is converted into a parser error at the directive's
// location; the entry being built is dropped and parsing continues.
func (p *Parser) callBuilder(loc ast.Location, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newParserErrorf(loc, "internal error in builder: %v", r)
		}
	}()
	fn()
	return nil
}
