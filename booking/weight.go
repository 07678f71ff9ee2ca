package booking

import (
	"github.com/shopspring/decimal"

	"github.com/NateJackDev/beancount/ast"
)

// weight returns the amount a posting contributes to its transaction's
// per-currency residuals. The conversion hierarchy: a cost with values
// converts the units into the cost currency, otherwise a price converts
// them into the price currency, otherwise the units stand as they are.
//
// The second return is false for postings that cannot be weighed: a cost
// clause without values ({USD}, {}) or a merge-cost marker names a lot
// whose acquisition value is unknown, so the transaction's balance cannot
// be checked at all.
func weight(p *ast.Posting) (*ast.Amount, bool) {
	units := p.Units()
	if units.Number == nil {
		return nil, true
	}

	if p.Position != nil {
		lot := p.Position.Lot
		if lot.Merge != nil && *lot.Merge {
			return nil, false
		}
		if cost := lot.Cost; cost != nil {
			if cost.PerUnit == nil && cost.Total == nil {
				return nil, false
			}
			return &ast.Amount{Number: costValue(units.Number, cost), Currency: cost.Currency}, true
		}
	}

	if p.Price != nil && p.Price.Number != nil && p.Price.Currency != "" {
		value := units.Number.Mul(*p.Price.Number)
		return &ast.Amount{Number: &value, Currency: p.Price.Currency}, true
	}

	return units, true
}

// costValue computes units valued at cost: units times the per-unit part
// plus the total part, the total signed like the units. The total-cost
// form {{...}} carries an exact-zero per-unit part, so both forms reduce
// to the same sum.
func costValue(units *decimal.Decimal, cost *ast.CompoundAmount) *decimal.Decimal {
	value := decimal.Zero
	if cost.PerUnit != nil {
		value = units.Mul(*cost.PerUnit)
	}
	if cost.Total != nil {
		total := *cost.Total
		if units.IsNegative() {
			total = total.Neg()
		}
		value = value.Add(total)
	}
	return &value
}
