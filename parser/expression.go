package parser

import (
	"github.com/shopspring/decimal"
)

// Expression parsing for arithmetic embedded wherever a number is
// expected.
//
// Supports binary + - * /, unary + and -, and parentheses, all over exact
// decimal values. Division by zero is a recorded parse error attached to
// the enclosing entry, never a crash.
//
// Operator precedence (low to high):
//  1. + -     (addition, subtraction)
//  2. * /     (multiplication, division)
//  3. unary + -, ( )
//
// Grammar:
//
//	expression → term (('+' | '-') term)*
//	term       → factor (('*' | '/') factor)*
//	factor     → NUMBER | ('+' | '-') factor | '(' expression ')'

// parseExpression parses and evaluates an arithmetic expression.
func (p *Parser) parseExpression() (decimal.Decimal, error) {
	return p.parseAddSubtract()
}

// parseAddSubtract handles addition and subtraction (lowest precedence).
func (p *Parser) parseAddSubtract() (decimal.Decimal, error) {
	left, err := p.parseMultiplyDivide()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		op := p.peek().Type
		if op != PLUS && op != MINUS {
			break
		}

		p.advance()

		right, err := p.parseMultiplyDivide()
		if err != nil {
			return decimal.Zero, err
		}

		switch op {
		case PLUS:
			left = left.Add(right)
		case MINUS:
			left = left.Sub(right)
		}
	}

	return left, nil
}

// parseMultiplyDivide handles multiplication and division.
func (p *Parser) parseMultiplyDivide() (decimal.Decimal, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		op := p.peek().Type
		if op != ASTERISK && op != SLASH {
			break
		}

		opToken := p.advance()

		right, err := p.parsePrimary()
		if err != nil {
			return decimal.Zero, err
		}

		switch op {
		case ASTERISK:
			left = left.Mul(right)
		case SLASH:
			if right.IsZero() {
				return decimal.Zero, p.errorAtToken(opToken, "division by zero")
			}
			left = left.Div(right)
		}
	}

	return left, nil
}

// parsePrimary handles numbers, unary sign and parenthesized expressions.
func (p *Parser) parsePrimary() (decimal.Decimal, error) {
	tok := p.peek()

	if tok.Type == LPAREN {
		p.advance()

		result, err := p.parseExpression()
		if err != nil {
			return decimal.Zero, err
		}

		if !p.check(RPAREN) {
			return decimal.Zero, p.errorAtToken(p.peek(), "expected ')' after expression")
		}
		p.advance()

		return result, nil
	}

	if tok.Type == NUMBER {
		numTok := p.advance()
		value := numTok.String(p.source)

		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, p.errorAtToken(numTok, "invalid number in expression: %v", err)
		}

		return d, nil
	}

	// Unary sign binds tighter than * and /.
	if tok.Type == MINUS {
		p.advance()

		value, err := p.parsePrimary()
		if err != nil {
			return decimal.Zero, err
		}

		return value.Neg(), nil
	}

	if tok.Type == PLUS {
		p.advance()
		return p.parsePrimary()
	}

	return decimal.Zero, p.errorAtToken(tok, "expected number or '(' in expression, got %s", tok.Type)
}
