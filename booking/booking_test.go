package booking

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/parser"
)

// book parses source and runs the booking pass, returning the directives
// and the booking errors. Parse errors fail the test.
func book(t *testing.T, source string) (ast.Directives, []error) {
	t.Helper()
	result := parser.ParseString(context.Background(), source)
	for _, err := range result.Errors {
		t.Fatalf("parse error: %v", err)
	}
	errs := Book(result.Directives, result.Options)
	return result.Directives, errs
}

func firstTransaction(t *testing.T, directives ast.Directives) *ast.Transaction {
	t.Helper()
	for _, d := range directives {
		if txn, ok := d.(*ast.Transaction); ok {
			return txn
		}
	}
	t.Fatal("no transaction in directives")
	return nil
}

func TestBookFillsElidedPosting(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Dinner"
  Expenses:Restaurant  100.00 USD
  Assets:Cash
`)

	assert.Equal(t, 0, len(errs))
	txn := firstTransaction(t, directives)
	filled := txn.Postings[1]
	assert.Equal(t, "Assets:Cash", string(filled.Account))
	assert.Equal(t, "-100", filled.Position.Number.String())
	assert.Equal(t, "USD", filled.Position.Lot.Currency)
}

func TestBookFillsMissingNumber(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Dinner"
  Expenses:Restaurant  100.00 USD
  Assets:Cash  USD
`)

	assert.Equal(t, 0, len(errs))
	txn := firstTransaction(t, directives)
	assert.Equal(t, "-100", txn.Postings[1].Position.Number.String())
}

func TestBookFillsMissingCurrency(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Dinner"
  Expenses:Restaurant  100.00 USD
  Assets:Cash  -100.00
`)

	assert.Equal(t, 0, len(errs))
	txn := firstTransaction(t, directives)
	assert.Equal(t, "USD", txn.Postings[1].Position.Lot.Currency)
}

func TestBookBalancedAtCost(t *testing.T) {
	_, errs := book(t, `
2014-05-05 * "Buy shares"
  Assets:Invest  10 HOOL {500.00 USD}
  Assets:Cash  -5000.00 USD
`)

	assert.Equal(t, 0, len(errs))
}

func TestBookPriceWeight(t *testing.T) {
	_, errs := book(t, `
2014-05-05 * "Exchange"
  Assets:CAD  -120.00 CAD @ 1.10 USD
  Assets:USD  132.00 USD
`)

	assert.Equal(t, 0, len(errs))
}

func TestBookTotalCost(t *testing.T) {
	_, errs := book(t, `
2014-05-05 * "Buy shares"
  Assets:Invest  10 HOOL {{5000.00 USD}}
  Assets:Cash  -5000.00 USD
`)

	assert.Equal(t, 0, len(errs))
}

func TestBookFillsAgainstCostValue(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Buy shares"
  Assets:Invest  HOOL {500.00 USD}
  Assets:Cash  -5000.00 USD
`)

	assert.Equal(t, 0, len(errs))
	txn := firstTransaction(t, directives)

	// The residual of -5000 USD is absorbed at 500 USD per unit.
	assert.Equal(t, "10", txn.Postings[0].Position.Number.String())
}

func TestBookUnbalancedTransaction(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Off by a dollar"
  Expenses:Restaurant  100.00 USD
  Assets:Cash  -99.00 USD
`)

	assert.Equal(t, 1, len(errs))
	balanceErr, ok := errs[0].(*BalanceError)
	assert.True(t, ok)
	assert.Contains(t, balanceErr.Error(), "Transaction does not balance")
	assert.Contains(t, balanceErr.Error(), "1 USD")
	assert.Equal(t, "1", balanceErr.Residuals["USD"].String())

	// The entry stays in the stream.
	txn := firstTransaction(t, directives)
	assert.Equal(t, txn, balanceErr.Entry)
}

func TestBookInferredTolerance(t *testing.T) {
	// Two-decimal postings infer a tolerance of 0.005, so a residual of
	// 0.004 passes and 0.006 fails.
	_, errs := book(t, `
2014-05-05 * "Rounding"
  Expenses:Misc  10.00 USD
  Assets:Cash  -10.004 USD
`)
	assert.Equal(t, 0, len(errs))

	_, errs = book(t, `
2014-05-05 * "Too much"
  Expenses:Misc  10.00 USD
  Assets:Cash  -10.006 USD
`)
	assert.Equal(t, 1, len(errs))
}

func TestBookIntegerFallbackTolerance(t *testing.T) {
	// Integer numbers carry no precision hint, so the global tolerance
	// option applies.
	_, errs := book(t, `
2014-05-05 * "Integers"
  Expenses:Misc  10 USD
  Assets:Cash  -11 USD
`)
	assert.Equal(t, 1, len(errs))

	_, errs = book(t, `
option "tolerance" "2"
2014-05-05 * "Integers with a loose default"
  Expenses:Misc  10 USD
  Assets:Cash  -11 USD
`)
	assert.Equal(t, 0, len(errs))
}

func TestBookInferToleranceFromCost(t *testing.T) {
	// With the option on, the units precision is projected through the
	// cost rate: 0.005 of a share at 100.00 USD allows 0.50 USD.
	source := `
2014-05-05 * "Buy with rounding"
  Assets:Invest  10.00 HOOL {100.00 USD}
  Assets:Cash  -1000.40 USD
`
	_, errs := book(t, source)
	assert.Equal(t, 1, len(errs))

	_, errs = book(t, `option "infer_tolerance_from_cost" "TRUE"`+"\n"+source)
	assert.Equal(t, 0, len(errs))
}

func TestBookDefaultToleranceOption(t *testing.T) {
	_, errs := book(t, `
option "default_tolerance" "USD:0.5"
2014-05-05 * "Loose"
  Expenses:Misc  10.00 USD
  Assets:Cash  -10.40 USD
`)
	assert.Equal(t, 0, len(errs))

	_, errs = book(t, `
option "default_tolerance" "USD:0.5"
2014-05-05 * "Still too much"
  Expenses:Misc  10.00 USD
  Assets:Cash  -10.60 USD
`)
	assert.Equal(t, 1, len(errs))
}

func TestBookWildcardToleranceOption(t *testing.T) {
	_, errs := book(t, `
option "default_tolerance" "*:0.5"
2014-05-05 * "Loose"
  Expenses:Misc  10.00 CAD
  Assets:Cash  -10.40 CAD
`)
	assert.Equal(t, 0, len(errs))
}

func TestBookExpandsElidedAcrossCurrencies(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Multi-currency"
  Expenses:TravelUSD  100.00 USD
  Expenses:TravelCAD  40.00 CAD
  Assets:Cash
`)

	assert.Equal(t, 0, len(errs))
	txn := firstTransaction(t, directives)
	assert.Equal(t, 4, len(txn.Postings))

	// One filled posting per residual currency, sorted by currency, in
	// the elided posting's place.
	cad := txn.Postings[2]
	assert.Equal(t, "Assets:Cash", string(cad.Account))
	assert.Equal(t, "CAD", cad.Position.Lot.Currency)
	assert.Equal(t, "-40", cad.Position.Number.String())

	usd := txn.Postings[3]
	assert.Equal(t, "Assets:Cash", string(usd.Account))
	assert.Equal(t, "USD", usd.Position.Lot.Currency)
	assert.Equal(t, "-100", usd.Position.Number.String())
}

func TestBookLeavesTwoIncompletePostingsAlone(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Ambiguous"
  Expenses:Misc  100.00 USD
  Assets:CashA
  Assets:CashB
`)

	assert.Equal(t, 0, len(errs))
	txn := firstTransaction(t, directives)
	assert.Zero(t, txn.Postings[1].Position)
	assert.Zero(t, txn.Postings[2].Position)
}

func TestBookValuelessCostSkipsCheck(t *testing.T) {
	// A lot reduced without a resolvable cost value cannot be weighed;
	// the balance check is suppressed rather than reported wrongly.
	_, errs := book(t, `
2014-05-05 * "Sell at unknown basis"
  Assets:Invest  -10 HOOL {USD}
  Assets:Cash  5200.00 USD
`)

	assert.Equal(t, 0, len(errs))
}

func TestBookSkipsNonTransactionDirectives(t *testing.T) {
	_, errs := book(t, `
2014-01-01 open Assets:Cash
2014-08-09 balance Assets:Cash 0.00 USD
`)

	assert.Equal(t, 0, len(errs))
}

func TestBookZeroResidualElisionLeftAsWritten(t *testing.T) {
	directives, errs := book(t, `
2014-05-05 * "Already balanced"
  Expenses:Misc  100.00 USD
  Assets:Cash  -100.00 USD
  Equity:Rounding
`)

	assert.Equal(t, 0, len(errs))
	txn := firstTransaction(t, directives)
	assert.Equal(t, 3, len(txn.Postings))
	assert.Zero(t, txn.Postings[2].Position)
}
