// Package booking validates and completes transactions after parsing.
//
// Each transaction's postings are reduced to per-currency weights. A
// posting held at cost weighs its cost value, a priced posting weighs its
// converted value, and a plain posting weighs its units. The weights of a
// correct transaction sum to zero in every currency within tolerance.
//
// Postings written without a number are completed here: the missing
// number absorbs the residual of its currency, and a posting elided
// entirely absorbs every nonzero residual, one posting per currency.
package booking

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/options"
)

// Book interpolates and balance-checks every transaction in the stream,
// modifying transactions in place. Directives of other kinds pass through
// untouched. All errors are collected; an unbalanced transaction stays in
// the stream.
func Book(directives ast.Directives, opts *options.Map) []error {
	var errs []error
	for _, directive := range directives {
		txn, ok := directive.(*ast.Transaction)
		if !ok {
			continue
		}
		errs = append(errs, bookTransaction(txn, opts)...)
	}
	return errs
}

func bookTransaction(txn *ast.Transaction, opts *options.Map) []error {
	var incomplete []*ast.Posting
	residuals := make(map[string]decimal.Decimal)
	checkable := true

	for _, posting := range txn.Postings {
		if !isComplete(posting) {
			incomplete = append(incomplete, posting)
			continue
		}
		w, ok := weight(posting)
		if !ok {
			// A lot without a known value makes the whole transaction
			// unweighable.
			checkable = false
			continue
		}
		if w != nil && w.Number != nil && w.Currency != "" {
			residuals[w.Currency] = residuals[w.Currency].Add(*w.Number)
		}
	}

	switch len(incomplete) {
	case 0:
	case 1:
		interpolate(txn, incomplete[0], residuals)
	default:
		// More than one posting is missing its number; the residual cannot
		// be attributed to either, so none is filled and the balance check
		// is skipped.
		return nil
	}

	if !checkable {
		return nil
	}

	resolver := newToleranceResolver(txn, opts)
	failed := make(map[string]decimal.Decimal)
	for currency, residual := range residuals {
		if residual.Abs().GreaterThan(resolver.forCurrency(currency)) {
			failed[currency] = residual
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return []error{&BalanceError{Loc: txn.Loc, Entry: txn, Residuals: failed}}
}

// isComplete reports whether a posting needs no interpolation: it has a
// position with both a number and a currency.
func isComplete(p *ast.Posting) bool {
	return p.Position != nil && p.Position.Number != nil && p.Position.Lot.Currency != ""
}

// interpolate completes the single incomplete posting of a transaction
// from the residuals of the complete ones. After interpolation the
// absorbed residuals are zeroed so the balance check passes exactly.
func interpolate(txn *ast.Transaction, posting *ast.Posting, residuals map[string]decimal.Decimal) {
	if posting.Position == nil {
		expandElided(txn, posting, residuals)
		return
	}

	position := posting.Position
	switch {
	case position.Number == nil && position.Lot.Currency != "":
		// Missing number. The residual to absorb lives in the posting's
		// value currency: the cost currency when held at cost, the price
		// currency when priced, the units currency otherwise.
		valueCurrency, perUnit := valueBasis(posting)
		number := residuals[valueCurrency].Neg()
		if perUnit != nil && !perUnit.IsZero() {
			number = number.Div(*perUnit)
		}
		position.Number = &number
		residuals[valueCurrency] = decimal.Zero

	case position.Number != nil && position.Lot.Currency == "":
		// Missing currency: fill it when exactly one currency has a
		// nonzero residual.
		candidate := ""
		for currency, residual := range residuals {
			if residual.IsZero() {
				continue
			}
			if candidate != "" {
				return
			}
			candidate = currency
		}
		if candidate != "" {
			position.Lot.Currency = candidate
			residuals[candidate] = residuals[candidate].Add(*position.Number)
		}
	}
}

// valueBasis returns the currency a posting's weight is denominated in
// and the per-unit conversion rate into it, nil when units weigh
// themselves.
func valueBasis(p *ast.Posting) (string, *decimal.Decimal) {
	if cost := p.Position.Lot.Cost; cost != nil && cost.PerUnit != nil && !cost.PerUnit.IsZero() {
		return cost.Currency, cost.PerUnit
	}
	if price := p.Price; price != nil && price.Number != nil && price.Currency != "" {
		return price.Currency, price.Number
	}
	return p.Position.Lot.Currency, nil
}

// expandElided replaces a posting written with no amount at all by one
// filled posting per currency left with a nonzero residual. A fully
// balanced transaction leaves the posting as written.
func expandElided(txn *ast.Transaction, posting *ast.Posting, residuals map[string]decimal.Decimal) {
	currencies := make([]string, 0, len(residuals))
	for currency, residual := range residuals {
		if !residual.IsZero() {
			currencies = append(currencies, currency)
		}
	}
	if len(currencies) == 0 {
		return
	}
	slices.Sort(currencies)

	index := slices.Index(txn.Postings, posting)
	if index < 0 {
		return
	}

	filled := make([]*ast.Posting, 0, len(currencies))
	for _, currency := range currencies {
		number := residuals[currency].Neg()
		clone := *posting
		clone.Position = &ast.Position{
			Number: &number,
			Lot:    ast.LotSpec{Currency: currency},
		}
		filled = append(filled, &clone)
		residuals[currency] = decimal.Zero
	}

	postings := make([]*ast.Posting, 0, len(txn.Postings)+len(filled)-1)
	postings = append(postings, txn.Postings[:index]...)
	postings = append(postings, filled...)
	postings = append(postings, txn.Postings[index+1:]...)
	txn.Postings = postings
}
