package booking

import (
	"github.com/shopspring/decimal"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/options"
)

var pointFive = decimal.RequireFromString("0.5")

// toleranceResolver computes the allowed residual per currency for one
// transaction. Resolution order: an explicit default_tolerance entry for
// the currency, then the "*" wildcard entry, then half the last decimal
// place seen on the transaction's own numbers, then the global default.
type toleranceResolver struct {
	explicit map[string]decimal.Decimal
	inferred map[string]decimal.Decimal
	fallback decimal.Decimal
}

func newToleranceResolver(txn *ast.Transaction, opts *options.Map) *toleranceResolver {
	r := &toleranceResolver{
		explicit: opts.DefaultTolerances(),
		inferred: make(map[string]decimal.Decimal),
		fallback: opts.Tolerance(),
	}
	inferFromCost := opts.Bool("infer_tolerance_from_cost")

	// Infer from the finest precision written on each currency's numbers.
	// A posting of 32.62 USD allows a residual of 0.005 USD.
	for _, posting := range txn.Postings {
		units := posting.Units()
		if units.Number == nil || units.Currency == "" {
			continue
		}
		tol := halfUlp(*units.Number)
		if tol.IsZero() {
			continue
		}
		r.observe(units.Currency, tol)

		if !inferFromCost || posting.Position == nil {
			continue
		}
		// Project the units tolerance into the cost or price currency, so
		// 0.005 of a share held at 100.00 USD allows 0.50 USD.
		if cost := posting.Position.Lot.Cost; cost != nil && cost.PerUnit != nil && !cost.PerUnit.IsZero() {
			r.observe(cost.Currency, tol.Mul(*cost.PerUnit))
		} else if price := posting.Price; price != nil && price.Number != nil {
			r.observe(price.Currency, tol.Mul(*price.Number))
		}
	}
	return r
}

// observe widens the inferred tolerance for a currency.
func (r *toleranceResolver) observe(currency string, tol decimal.Decimal) {
	if have, ok := r.inferred[currency]; !ok || tol.GreaterThan(have) {
		r.inferred[currency] = tol
	}
}

// forCurrency returns the tolerance allowed on the residual of a currency.
func (r *toleranceResolver) forCurrency(currency string) decimal.Decimal {
	if tol, ok := r.explicit[currency]; ok {
		return tol
	}
	if tol, ok := r.explicit["*"]; ok {
		return tol
	}
	if tol, ok := r.inferred[currency]; ok {
		return tol
	}
	return r.fallback
}

// halfUlp returns half of the value's last written decimal place, or zero
// for integers, which carry no precision hint.
func halfUlp(d decimal.Decimal) decimal.Decimal {
	exp := d.Exponent()
	if exp >= 0 {
		return decimal.Zero
	}
	return pointFive.Shift(exp)
}
