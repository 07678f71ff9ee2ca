package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date represents a calendar date in ISO 8601 format (YYYY-MM-DD). All
// directives carry a date; dates order the final directive stream.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD literal. Out-of-range months and days are
// rejected here, so an impossible calendar date never reaches the parser.
func ParseDate(s string) (*Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", s)
	}
	return &Date{Time: t}, nil
}

// MustParseDate parses a date literal and panics on error. Test helper.
func MustParseDate(s string) *Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the date is nil or the zero time. Nil-safe.
func (d *Date) IsZero() bool {
	return d == nil || d.Time.IsZero()
}

// Equal reports whether two dates fall on the same day. Nil-safe.
func (d *Date) Equal(o *Date) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Time.Equal(o.Time)
}

func (d *Date) String() string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}

// Account represents an account name of at least two colon-separated
// segments. The first segment must be one of the five account categories;
// subsequent segments start with an uppercase letter or digit.
//
// Example accounts:
//
//	Assets:US:BofA:Checking
//	Liabilities:CreditCard:CapitalOne
//	Expenses:Home:Rent
type Account string

// accountSegmentRegexp validates segments after the first. Must start with
// an uppercase letter or digit, then letters, digits and hyphens.
var accountSegmentRegexp = regexp.MustCompile(`^[A-Z0-9][A-Za-z0-9-]*$`)

// ParseAccount validates an account name.
func ParseAccount(s string) (Account, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("account must have at least two segments: %s", s)
	}

	switch parts[0] {
	case "Assets", "Liabilities", "Equity", "Income", "Expenses":
	default:
		return "", fmt.Errorf("unexpected account type %q", parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !accountSegmentRegexp.MatchString(parts[i]) {
			return "", fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}

	return Account(s), nil
}

// Root returns the account category (first segment).
func (a Account) Root() string {
	if i := strings.IndexByte(string(a), ':'); i >= 0 {
		return string(a[:i])
	}
	return string(a)
}

// Tag is a free-form label attached to transactions, written #tag in the
// source. Stored without the sigil.
type Tag string

// Link connects related transactions, written ^link in the source.
// Stored without the sigil.
type Link string

// Amount is a number paired with a currency. Either part may be absent in
// an incomplete context: a nil Number or empty Currency marks a value the
// interpolation engine may fill in later.
type Amount struct {
	Number   *decimal.Decimal
	Currency string
	Span     Span
}

// NewAmount builds a complete amount.
func NewAmount(number decimal.Decimal, currency string) *Amount {
	return &Amount{Number: &number, Currency: currency}
}

// IsComplete reports whether both number and currency are present.
func (a *Amount) IsComplete() bool {
	return a != nil && a.Number != nil && a.Currency != ""
}

func (a *Amount) String() string {
	if a == nil {
		return ""
	}
	num := ""
	if a.Number != nil {
		num = a.Number.String()
	}
	if a.Currency == "" {
		return num
	}
	if num == "" {
		return a.Currency
	}
	return num + " " + a.Currency
}

// CompoundAmount holds a not-yet-resolved cost clause: a per-unit part, a
// total part, and a currency. For the double-brace total-cost form the
// per-unit part is exact zero (not nil), which is how downstream consumers
// tell {{100 USD}} apart from {100 USD}.
type CompoundAmount struct {
	PerUnit  *decimal.Decimal
	Total    *decimal.Decimal
	Currency string
}

func (c *CompoundAmount) String() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	if c.PerUnit != nil {
		b.WriteString(c.PerUnit.String())
	}
	if c.Total != nil {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("# ")
		b.WriteString(c.Total.String())
	}
	if c.Currency != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(c.Currency)
	}
	return b.String()
}

// LotSpec is the cost-basis identity of a position: the currency held, its
// acquisition cost, date and label, and the merge marker. Each component
// appears at most once; the builder reports duplicates and keeps the first
// occurrence. An empty Currency ({}) is distinct from a named one ({USD})
// and both are preserved as written.
type LotSpec struct {
	Currency string
	Cost     *CompoundAmount
	Date     *Date
	Label    *string
	Merge    *bool
}

// IsEmpty reports whether no lot component was given at all.
func (l LotSpec) IsEmpty() bool {
	return l.Currency == "" && l.Cost == nil && l.Date == nil && l.Label == nil && l.Merge == nil
}

// Position pairs a unit number with the lot it belongs to. A nil Number
// marks an incomplete posting whose units the interpolation engine may
// resolve; the lot currency may still be known.
type Position struct {
	Number *decimal.Decimal
	Lot    LotSpec
}

// IsComplete reports whether the position has both units and a currency.
func (p *Position) IsComplete() bool {
	return p != nil && p.Number != nil && p.Lot.Currency != ""
}

// MetaValue is a typed scalar stored under a metadata key. Exactly one
// field is set, or none for an empty value (a bare "key:" line).
type MetaValue struct {
	String   *string
	Account  *Account
	Date     *Date
	Currency *string
	Tag      *Tag
	Number   *decimal.Decimal
	Amount   *Amount
	Boolean  *bool
}

// Type names the value's kind, or "empty" when no field is set.
func (v *MetaValue) Type() string {
	switch {
	case v == nil:
		return "empty"
	case v.String != nil:
		return "string"
	case v.Account != nil:
		return "account"
	case v.Date != nil:
		return "date"
	case v.Currency != nil:
		return "currency"
	case v.Tag != nil:
		return "tag"
	case v.Number != nil:
		return "number"
	case v.Amount != nil:
		return "amount"
	case v.Boolean != nil:
		return "boolean"
	default:
		return "empty"
	}
}

func (v *MetaValue) GoString() string { return v.Render() }

// Render returns the value as it would appear in the source.
func (v *MetaValue) Render() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return *v.String
	case v.Account != nil:
		return string(*v.Account)
	case v.Date != nil:
		return v.Date.String()
	case v.Currency != nil:
		return *v.Currency
	case v.Tag != nil:
		return "#" + string(*v.Tag)
	case v.Number != nil:
		return v.Number.String()
	case v.Amount != nil:
		return v.Amount.String()
	case v.Boolean != nil:
		if *v.Boolean {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// MetaPair is one key/value entry in a metadata mapping.
type MetaPair struct {
	Key   string
	Value *MetaValue
}

// Meta is an ordered key/value mapping attached to a directive or posting.
// Every instance carries the source filename and line number it was built
// from. The first occurrence of a key wins; Set refuses duplicates so the
// builder can report them.
type Meta struct {
	Filename string
	Lineno   int
	Pairs    []MetaPair
}

// NewMeta creates metadata for the given source location.
func NewMeta(filename string, lineno int) *Meta {
	return &Meta{Filename: filename, Lineno: lineno}
}

// Set stores a key/value pair. Returns false without modifying the mapping
// if the key is already present.
func (m *Meta) Set(key string, value *MetaValue) bool {
	if _, ok := m.Get(key); ok {
		return false
	}
	m.Pairs = append(m.Pairs, MetaPair{Key: key, Value: value})
	return true
}

// Get returns the value stored under key.
func (m *Meta) Get(key string) (*MetaValue, bool) {
	if m == nil {
		return nil, false
	}
	for _, p := range m.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Keys returns the stored keys in insertion order.
func (m *Meta) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		keys = append(keys, p.Key)
	}
	return keys
}
