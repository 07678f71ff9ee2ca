package parser

import (
	"github.com/NateJackDev/beancount/ast"
)

// parseTransaction parses a transaction: the flag line with its strings,
// tags and links, then the indented body of metadata and postings.
//
//	2014-05-05 * "Cafe Mogador" "Lamb tagine" #trip ^receipt-72
//	  time: "20:03"
//	  Liabilities:CreditCard:CapitalOne  -37.45 USD
//	  Expenses:Food:Restaurant
func (p *Parser) parseTransaction(loc ast.Location, date *ast.Date) error {
	flagTok := p.advance()
	flag := "*"
	if flagTok.Type != TXN {
		flag = flagTok.String(p.source)
	}

	var strs []string
	var tags []ast.Tag
	var links []ast.Link
	for p.peek().Line == flagTok.Line && !p.isAtEnd() {
		switch p.peek().Type {
		case STRING:
			s, err := p.parseString()
			if err != nil {
				return err
			}
			strs = append(strs, s)
		case TAG:
			tag, err := p.parseTag()
			if err != nil {
				return err
			}
			tags = append(tags, tag)
		case LINK:
			link, err := p.parseLink()
			if err != nil {
				return err
			}
			links = append(links, link)
		default:
			tok := p.peek()
			return p.errorAtToken(tok, "unexpected token '%s' on transaction line", tok.String(p.source))
		}
	}

	// Metadata lines before the first posting belong to the transaction.
	var kvlist []ast.MetaPair
	for p.peek().Column > 1 && p.isMetaKey() {
		pair, err := p.parseMetaPair()
		if err != nil {
			return err
		}
		kvlist = append(kvlist, pair)
	}

	var postings []*ast.Posting
	for p.peek().Column > 1 && !p.isAtEnd() {
		posting, err := p.parsePosting()
		if err != nil {
			return err
		}
		if posting != nil {
			postings = append(postings, posting)
		}
	}

	return p.callBuilder(loc, func() {
		p.builder.Transaction(loc, date, flag, strs, tags, links, kvlist, postings)
	})
}

// parsePosting parses one posting line with its optional flag, amount,
// lot spec and price annotation, plus any metadata lines that follow it.
func (p *Parser) parsePosting() (*ast.Posting, error) {
	startTok := p.peek()
	loc := p.location(startTok)

	flag := ""
	if startTok.Type == ASTERISK || startTok.Type == EXCLAIM {
		flag = startTok.String(p.source)
		p.advance()
	}

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	line := p.previous().Line

	// Units may be complete, number-only, currency-only or fully absent.
	number, currency, err := p.parseIncompleteAmount(line)
	if err != nil {
		return nil, err
	}

	var lot *ast.LotSpec
	switch {
	case p.check(LBRACE):
		lot, err = p.parseLotSpec()
	case p.check(LDBRACE):
		lot, err = p.parseLotSpecTotal()
	}
	if err != nil {
		return nil, err
	}

	var position *ast.Position
	if number != nil || currency != "" || lot != nil {
		if err := p.callBuilder(loc, func() {
			position = p.builder.Position(loc, number, currency, lot)
		}); err != nil {
			return nil, err
		}
	}

	var price *ast.Amount
	priceTotal := false
	if p.check(AT) || p.check(ATAT) {
		priceTotal = p.peek().Type == ATAT
		atTok := p.advance()

		priceNumber, priceCurrency, err := p.parseIncompleteAmount(atTok.Line)
		if err != nil {
			return nil, err
		}
		price = &ast.Amount{Number: priceNumber, Currency: priceCurrency}
	}

	if err := p.expectEOL(p.previous().Line); err != nil {
		return nil, err
	}

	var kvlist []ast.MetaPair
	for p.peek().Column > 1 && p.isMetaKey() {
		pair, err := p.parseMetaPair()
		if err != nil {
			return nil, err
		}
		kvlist = append(kvlist, pair)
	}

	var posting *ast.Posting
	err = p.callBuilder(loc, func() {
		posting = p.builder.Posting(loc, flag, account, position, price, priceTotal, kvlist)
	})
	return posting, err
}

// parseLotSpec parses a `{...}` cost clause: a comma-separated list of
// components in any order. Components are a compound cost, an acquisition
// date, a label string or the merge marker.
func (p *Parser) parseLotSpec() (*ast.LotSpec, error) {
	openTok := p.advance()
	loc := p.location(openTok)

	var comps []LotComponent
	if !p.check(RBRACE) {
		for {
			comp, err := p.parseLotComponent()
			if err != nil {
				return nil, err
			}
			comps = append(comps, comp)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(RBRACE, "'}' to close cost clause"); err != nil {
		return nil, err
	}

	var lot ast.LotSpec
	if err := p.callBuilder(loc, func() {
		lot = p.builder.LotSpec(loc, comps)
	}); err != nil {
		return nil, err
	}
	return &lot, nil
}

// parseLotComponent parses one component of a `{...}` cost clause.
func (p *Parser) parseLotComponent() (LotComponent, error) {
	tok := p.peek()
	switch tok.Type {
	case DATE:
		date, err := p.parseDate()
		if err != nil {
			return LotComponent{}, err
		}
		return LotComponent{Date: date}, nil

	case STRING:
		label, err := p.parseString()
		if err != nil {
			return LotComponent{}, err
		}
		return LotComponent{Label: &label}, nil

	case ASTERISK:
		p.advance()
		return LotComponent{Merge: true}, nil

	case IDENT:
		// A bare currency, as in {USD}.
		currency, err := p.parseCurrency()
		if err != nil {
			return LotComponent{}, err
		}
		return LotComponent{Cost: p.builder.CompoundAmount(nil, nil, currency)}, nil

	case HASH:
		// Total-only cost: {# 9.95 USD}.
		p.advance()
		total, _, err := p.parseNumber()
		if err != nil {
			return LotComponent{}, err
		}
		currency, err := p.parseCurrency()
		if err != nil {
			return LotComponent{}, err
		}
		return LotComponent{Cost: p.builder.CompoundAmount(nil, &total, currency)}, nil
	}

	if p.canStartNumber() {
		// Per-unit cost with an optional total: {1.10 USD} or
		// {1.10 # 9.95 USD}.
		perUnit, _, err := p.parseNumber()
		if err != nil {
			return LotComponent{}, err
		}
		if p.match(HASH) {
			total, _, err := p.parseNumber()
			if err != nil {
				return LotComponent{}, err
			}
			currency, err := p.parseCurrency()
			if err != nil {
				return LotComponent{}, err
			}
			return LotComponent{Cost: p.builder.CompoundAmount(&perUnit, &total, currency)}, nil
		}
		currency, err := p.parseCurrency()
		if err != nil {
			return LotComponent{}, err
		}
		return LotComponent{Cost: p.builder.CompoundAmount(&perUnit, nil, currency)}, nil
	}

	return LotComponent{}, p.errorAtToken(tok, "invalid cost component '%s'", tok.String(p.source))
}

// parseLotSpecTotal parses the `{{...}}` total-cost clause: an amount
// with an optional acquisition date.
func (p *Parser) parseLotSpecTotal() (*ast.LotSpec, error) {
	openTok := p.advance()
	loc := p.location(openTok)

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	var date *ast.Date
	if p.match(COMMA) {
		date, err = p.parseDate()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(RDBRACE, "'}}' to close total cost clause"); err != nil {
		return nil, err
	}

	var lot ast.LotSpec
	if err := p.callBuilder(loc, func() {
		lot = p.builder.LotSpecTotal(loc, amount, date)
	}); err != nil {
		return nil, err
	}
	return &lot, nil
}
