package parser

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NateJackDev/beancount/ast"
)

// errSuppressed marks a parse failure at an ERROR token. The lexer already
// recorded an error for the bad input, so the parser discards the rule
// without reporting a second one.
var errSuppressed = errors.New("parse error at lexer error token")

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

// peekAhead returns the token n positions ahead, or EOF past the end.
func (p *Parser) peekAhead(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

// previous returns the most recently consumed token.
func (p *Parser) previous() Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

// advance consumes and returns the current token. The EOF token is never
// consumed.
func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

// check reports whether the current token has the given type.
func (p *Parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

// match consumes the current token if it has the given type.
func (p *Parser) match(typ TokenType) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

// isAtEnd reports whether all tokens have been consumed.
func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

// location converts a token to its source location.
func (p *Parser) location(tok Token) ast.Location {
	return ast.Location{
		Filename: p.filename,
		Offset:   tok.Start,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

// errorAtToken builds a syntax error at the given token. Failures at an
// ERROR token return the suppression sentinel instead, since the lexer
// already reported the underlying problem.
func (p *Parser) errorAtToken(tok Token, format string, args ...interface{}) error {
	if tok.Type == ERROR {
		return errSuppressed
	}
	return newSyntaxErrorf(p.location(tok), format, args...)
}

// expect consumes a token of the given type or fails with a syntax error
// naming what was expected.
func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, p.errorAtToken(tok, "expected %s, got '%s'", what, tok.String(p.source))
}

// expectEOL fails when a stray token remains on the given line.
func (p *Parser) expectEOL(line int) error {
	tok := p.peek()
	if tok.Type != EOF && tok.Line == line {
		return p.errorAtToken(tok, "unexpected token '%s' at end of line", tok.String(p.source))
	}
	return nil
}

// isKeyword reports whether the token type is a directive keyword. Keyword
// words double as metadata keys, so several places accept either.
func isKeyword(typ TokenType) bool {
	return typ >= TXN && typ <= POPTAG
}

// parseDate consumes a DATE token. The lexer validated the calendar date
// eagerly, so a failure here means a malformed token slipped through.
func (p *Parser) parseDate() (*ast.Date, error) {
	tok, err := p.expect(DATE, "a date")
	if err != nil {
		return nil, err
	}
	date, err := ast.ParseDate(tok.String(p.source))
	if err != nil {
		return nil, p.errorAtToken(tok, "%v", err)
	}
	return date, nil
}

// parseAccount consumes an ACCOUNT token and validates its segments.
func (p *Parser) parseAccount() (ast.Account, error) {
	tok, err := p.expect(ACCOUNT, "an account name")
	if err != nil {
		return "", err
	}
	account, err := ast.ParseAccount(p.interner.InternBytes(tok.Bytes(p.source)))
	if err != nil {
		return "", p.errorAtToken(tok, "%v", err)
	}
	return account, nil
}

// parseCurrency consumes an IDENT token as a currency code.
func (p *Parser) parseCurrency() (string, error) {
	tok, err := p.expect(IDENT, "a currency")
	if err != nil {
		return "", err
	}
	return p.interner.InternBytes(tok.Bytes(p.source)), nil
}

// parseString consumes a STRING token and returns its unquoted value.
func (p *Parser) parseString() (string, error) {
	tok, err := p.expect(STRING, "a string")
	if err != nil {
		return "", err
	}
	value := unquoteString(tok.String(p.source))

	if maxlines := p.builder.Options().Int("long_string_maxlines"); maxlines > 0 {
		if strings.Count(value, "\n") > maxlines {
			p.builder.AddError(newParserErrorf(p.location(tok),
				"String too long (%d lines); possibly due to an unclosed quote",
				strings.Count(value, "\n")+1))
		}
	}
	return value, nil
}

// unquoteString strips the surrounding quotes and resolves the escape
// sequences the lexer passed through.
func unquoteString(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '\\' || i+1 >= len(raw) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// parseTag consumes a TAG token, stripping the '#' sigil.
func (p *Parser) parseTag() (ast.Tag, error) {
	tok, err := p.expect(TAG, "a tag")
	if err != nil {
		return "", err
	}
	text := tok.Bytes(p.source)
	if len(text) < 2 {
		return "", p.errorAtToken(tok, "empty tag")
	}
	return ast.Tag(p.interner.InternBytes(text[1:])), nil
}

// parseLink consumes a LINK token, stripping the '^' sigil.
func (p *Parser) parseLink() (ast.Link, error) {
	tok, err := p.expect(LINK, "a link")
	if err != nil {
		return "", err
	}
	text := tok.Bytes(p.source)
	if len(text) < 2 {
		return "", p.errorAtToken(tok, "empty link")
	}
	return ast.Link(p.interner.InternBytes(text[1:])), nil
}

// canStartNumber reports whether the current token can begin a number or
// arithmetic expression.
func (p *Parser) canStartNumber() bool {
	switch p.peek().Type {
	case NUMBER, LPAREN, MINUS, PLUS:
		return true
	}
	return false
}

// parseNumber parses a number literal or arithmetic expression, evaluated
// to an exact decimal. The returned span covers the original source text.
func (p *Parser) parseNumber() (decimal.Decimal, ast.Span, error) {
	start := p.peek().Start
	if !p.canStartNumber() {
		tok := p.peek()
		return decimal.Zero, ast.Span{}, p.errorAtToken(tok, "expected a number, got '%s'", tok.String(p.source))
	}

	value, err := p.parseExpression()
	if err != nil {
		return decimal.Zero, ast.Span{}, err
	}
	return value, ast.Span{Start: start, End: p.previous().End}, nil
}

// parseAmount parses a complete amount: a number followed by a currency.
func (p *Parser) parseAmount() (*ast.Amount, error) {
	number, span, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	currency, err := p.parseCurrency()
	if err != nil {
		return nil, err
	}

	var amount *ast.Amount
	loc := p.location(p.previous())
	err = p.callBuilder(loc, func() {
		amount = p.builder.Amount(number, currency, span)
	})
	return amount, err
}

// parseIncompleteAmount parses an amount where either the number or the
// currency (or both) may be absent, as found on transaction postings and
// after price annotations. The line argument bounds the lookahead so a
// currency on the next line is never swallowed.
func (p *Parser) parseIncompleteAmount(line int) (number *decimal.Decimal, currency string, err error) {
	if p.canStartNumber() && p.peek().Line == line {
		n, _, err := p.parseNumber()
		if err != nil {
			return nil, "", err
		}
		number = &n
	}
	if p.check(IDENT) && p.peek().Line == line {
		currency, err = p.parseCurrency()
		if err != nil {
			return nil, "", err
		}
	}
	return number, currency, nil
}

// isMetaKey reports whether the current token starts a metadata line: a
// lowercase identifier or keyword word immediately followed by a colon.
func (p *Parser) isMetaKey() bool {
	tok := p.peek()
	if tok.Type == IDENT {
		text := tok.Bytes(p.source)
		if len(text) == 0 || text[0] < 'a' || text[0] > 'z' {
			return false
		}
	} else if !isKeyword(tok.Type) {
		return false
	}
	next := p.peekAhead(1)
	return next.Type == COLON && next.Start == tok.End
}

// parseMetaPair parses one "key: value" metadata line. The value is typed
// by its token: string, account, date, currency, tag, boolean, number or
// amount. A bare "key:" stores an empty value.
func (p *Parser) parseMetaPair() (ast.MetaPair, error) {
	keyTok := p.advance()
	key := p.interner.InternBytes(keyTok.Bytes(p.source))
	if _, err := p.expect(COLON, "':' after metadata key"); err != nil {
		return ast.MetaPair{}, err
	}

	value, err := p.parseMetaValue(keyTok.Line)
	if err != nil {
		return ast.MetaPair{}, err
	}
	if err := p.expectEOL(keyTok.Line); err != nil {
		return ast.MetaPair{}, err
	}
	return p.builder.KeyValue(key, value), nil
}

// parseMetaValue parses the typed value of a metadata line, or nil when
// the rest of the line is empty.
func (p *Parser) parseMetaValue(line int) (*ast.MetaValue, error) {
	tok := p.peek()
	if tok.Type == EOF || tok.Line != line {
		return nil, nil
	}

	switch tok.Type {
	case STRING:
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return &ast.MetaValue{String: &s}, nil

	case ACCOUNT:
		account, err := p.parseAccount()
		if err != nil {
			return nil, err
		}
		return &ast.MetaValue{Account: &account}, nil

	case DATE:
		date, err := p.parseDate()
		if err != nil {
			return nil, err
		}
		return &ast.MetaValue{Date: date}, nil

	case TAG:
		tag, err := p.parseTag()
		if err != nil {
			return nil, err
		}
		return &ast.MetaValue{Tag: &tag}, nil

	case IDENT:
		text := tok.String(p.source)
		switch text {
		case "TRUE":
			p.advance()
			v := true
			return &ast.MetaValue{Boolean: &v}, nil
		case "FALSE":
			p.advance()
			v := false
			return &ast.MetaValue{Boolean: &v}, nil
		}
		currency, err := p.parseCurrency()
		if err != nil {
			return nil, err
		}
		return &ast.MetaValue{Currency: &currency}, nil

	case NUMBER, LPAREN, MINUS, PLUS:
		number, span, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if p.check(IDENT) && p.peek().Line == line {
			currency, err := p.parseCurrency()
			if err != nil {
				return nil, err
			}
			var amount *ast.Amount
			err = p.callBuilder(p.location(p.previous()), func() {
				amount = p.builder.Amount(number, currency, span)
			})
			if err != nil {
				return nil, err
			}
			return &ast.MetaValue{Amount: amount}, nil
		}
		return &ast.MetaValue{Number: &number}, nil
	}

	return nil, p.errorAtToken(tok, "invalid metadata value '%s'", tok.String(p.source))
}

// parseMetadata parses the indented metadata lines following a directive.
func (p *Parser) parseMetadata() ([]ast.MetaPair, error) {
	var kvlist []ast.MetaPair
	for p.peek().Column > 1 && p.isMetaKey() {
		pair, err := p.parseMetaPair()
		if err != nil {
			return kvlist, err
		}
		kvlist = append(kvlist, pair)
	}
	return kvlist, nil
}
