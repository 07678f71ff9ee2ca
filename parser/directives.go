package parser

import (
	"github.com/shopspring/decimal"

	"github.com/NateJackDev/beancount/ast"
)

// parseOption parses `option "name" "value"`.
func (p *Parser) parseOption() error {
	tok := p.advance()
	loc := p.location(tok)

	name, err := p.parseString()
	if err != nil {
		return err
	}
	value, err := p.parseString()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Option(loc, name, value)
	})
}

// parseInclude parses `include "filename"`.
func (p *Parser) parseInclude() error {
	tok := p.advance()
	loc := p.location(tok)

	filename, err := p.parseString()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Include(loc, filename)
	})
}

// parsePlugin parses `plugin "name"` with an optional configuration
// string.
func (p *Parser) parsePlugin() error {
	tok := p.advance()
	loc := p.location(tok)

	name, err := p.parseString()
	if err != nil {
		return err
	}
	config := ""
	if p.check(STRING) && p.peek().Line == tok.Line {
		config, err = p.parseString()
		if err != nil {
			return err
		}
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Plugin(loc, name, config)
	})
}

// parsePushtag parses `pushtag #tag`.
func (p *Parser) parsePushtag() error {
	tok := p.advance()
	loc := p.location(tok)

	tag, err := p.parseTag()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Pushtag(loc, tag)
	})
}

// parsePoptag parses `poptag #tag`.
func (p *Parser) parsePoptag() error {
	tok := p.advance()
	loc := p.location(tok)

	tag, err := p.parseTag()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Poptag(loc, tag)
	})
}

// parseOpen parses `DATE open ACCOUNT [CURRENCY,...] ["BookingMethod"]`.
func (p *Parser) parseOpen(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return err
	}

	var currencies []string
	for p.check(IDENT) && p.peek().Line == tok.Line {
		currency, err := p.parseCurrency()
		if err != nil {
			return err
		}
		currencies = append(currencies, currency)
		if !p.match(COMMA) {
			break
		}
	}

	booking := ""
	if p.check(STRING) && p.peek().Line == tok.Line {
		booking, err = p.parseString()
		if err != nil {
			return err
		}
	}

	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Open(loc, date, account, currencies, booking, kvlist)
	})
}

// parseClose parses `DATE close ACCOUNT`.
func (p *Parser) parseClose(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Close(loc, date, account, kvlist)
	})
}

// parseCommodity parses `DATE commodity CURRENCY`.
func (p *Parser) parseCommodity(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	currency, err := p.parseCurrency()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Commodity(loc, date, currency, kvlist)
	})
}

// parsePad parses `DATE pad ACCOUNT SOURCE_ACCOUNT`.
func (p *Parser) parsePad(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return err
	}
	source, err := p.parseAccount()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Pad(loc, date, account, source, kvlist)
	})
}

// parseBalance parses `DATE balance ACCOUNT NUMBER [~ NUMBER] CURRENCY`.
// The tilde form declares an explicit assertion tolerance.
func (p *Parser) parseBalance(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return err
	}

	number, span, err := p.parseNumber()
	if err != nil {
		return err
	}

	var tolerance *decimal.Decimal
	if p.match(TILDE) {
		tol, _, err := p.parseNumber()
		if err != nil {
			return err
		}
		tolerance = &tol
	}

	currency, err := p.parseCurrency()
	if err != nil {
		return err
	}

	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		amount := p.builder.Amount(number, currency, span)
		p.builder.Balance(loc, date, account, amount, tolerance, kvlist)
	})
}

// parseNote parses `DATE note ACCOUNT "comment"`.
func (p *Parser) parseNote(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return err
	}
	comment, err := p.parseString()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Note(loc, date, account, comment, kvlist)
	})
}

// parseDocument parses `DATE document ACCOUNT "path"`.
func (p *Parser) parseDocument(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return err
	}
	path, err := p.parseString()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Document(loc, date, account, path, kvlist)
	})
}

// parsePrice parses `DATE price CURRENCY AMOUNT`.
func (p *Parser) parsePrice(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	currency, err := p.parseCurrency()
	if err != nil {
		return err
	}
	amount, err := p.parseAmount()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Price(loc, date, currency, amount, kvlist)
	})
}

// parseEvent parses `DATE event "type" "value"`.
func (p *Parser) parseEvent(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	eventType, err := p.parseString()
	if err != nil {
		return err
	}
	value, err := p.parseString()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Event(loc, date, eventType, value, kvlist)
	})
}

// parseQuery parses `DATE query "name" "sql"`.
func (p *Parser) parseQuery(loc ast.Location, date *ast.Date) error {
	tok := p.advance()

	name, err := p.parseString()
	if err != nil {
		return err
	}
	query, err := p.parseString()
	if err != nil {
		return err
	}
	if err := p.expectEOL(tok.Line); err != nil {
		return err
	}
	kvlist, err := p.parseMetadata()
	if err != nil {
		return err
	}

	return p.callBuilder(loc, func() {
		p.builder.Query(loc, date, name, query, kvlist)
	})
}
