// Package ast declares the types used to represent parsed ledger entries:
// directives, postings, amounts, cost lots and metadata.
//
// Values are created once by the parser's builder and are never mutated
// afterwards, with one exception: the booking engine may fill in the
// missing number or currency of an incomplete posting.
package ast

import (
	"golang.org/x/exp/slices"
)

// Directives is an ordered list of directives.
type Directives []Directive

// compareDates orders two directives by date only. Same-date directives
// compare equal so that a stable sort preserves their source order.
func compareDates(a, b Directive) int {
	switch {
	case a.date().Before(b.date().Time):
		return -1
	case a.date().After(b.date().Time):
		return 1
	default:
		return 0
	}
}

// isSorted reports whether the directives are already in date order.
func isSorted(d Directives) bool {
	for i := 1; i < len(d); i++ {
		if compareDates(d[i], d[i-1]) < 0 {
			return false
		}
	}
	return true
}

// Sort orders directives by date. The sort is stable: two directives on
// the same date keep their relative parse order.
func Sort(d Directives) {
	// Well-maintained files are usually already in order.
	if isSorted(d) {
		return
	}
	slices.SortStableFunc(d, compareDates)
}
