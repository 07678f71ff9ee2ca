package booking

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/NateJackDev/beancount/ast"
)

// BalanceError reports a transaction whose posting weights do not sum to
// zero within tolerance. The transaction is kept in the directive stream;
// the error records the residual left in each unbalanced currency.
type BalanceError struct {
	Loc       ast.Location
	Entry     *ast.Transaction
	Residuals map[string]decimal.Decimal
}

func (e *BalanceError) Error() string {
	currencies := make([]string, 0, len(e.Residuals))
	for currency := range e.Residuals {
		currencies = append(currencies, currency)
	}
	slices.Sort(currencies)

	parts := make([]string, 0, len(currencies))
	for _, currency := range currencies {
		parts = append(parts, e.Residuals[currency].String()+" "+currency)
	}

	prefix := fmt.Sprintf("line %d", e.Loc.Line)
	if e.Loc.Filename != "" {
		prefix = fmt.Sprintf("%s:%d", e.Loc.Filename, e.Loc.Line)
	}
	return fmt.Sprintf("%s: Transaction does not balance: %s", prefix, strings.Join(parts, ", "))
}

// Location returns where the unbalanced transaction starts.
func (e *BalanceError) Location() ast.Location { return e.Loc }

// RelatedEntry returns the unbalanced transaction.
func (e *BalanceError) RelatedEntry() ast.Directive { return e.Entry }
