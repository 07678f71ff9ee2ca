package ast

import "github.com/shopspring/decimal"

// Directive is the interface implemented by all dated ledger entries.
type Directive interface {
	date() *Date
	Kind() string
	Location() Location
	Metadata() *Meta
}

// Commodity declares a currency or commodity that may appear in the ledger.
//
// Example:
//
//	2014-01-01 commodity USD
type Commodity struct {
	Loc      Location
	Date     *Date
	Currency string
	Meta     *Meta
}

var _ Directive = &Commodity{}

func (c *Commodity) date() *Date        { return c.Date }
func (c *Commodity) Kind() string       { return "commodity" }
func (c *Commodity) Location() Location { return c.Loc }
func (c *Commodity) Metadata() *Meta    { return c.Meta }

// Open declares the opening of an account, optionally constraining the
// currencies it may hold and naming a booking method.
//
// Example:
//
//	2014-05-01 open Assets:US:BofA:Checking USD
//	2014-05-01 open Assets:Investments:Brokerage USD,EUR "FIFO"
type Open struct {
	Loc        Location
	Date       *Date
	Account    Account
	Currencies []string
	Booking    string
	Meta       *Meta
}

var _ Directive = &Open{}

func (o *Open) date() *Date        { return o.Date }
func (o *Open) Kind() string       { return "open" }
func (o *Open) Location() Location { return o.Loc }
func (o *Open) Metadata() *Meta    { return o.Meta }

// Close declares the closing of an account.
//
// Example:
//
//	2015-09-23 close Assets:US:BofA:Checking
type Close struct {
	Loc     Location
	Date    *Date
	Account Account
	Meta    *Meta
}

var _ Directive = &Close{}

func (c *Close) date() *Date        { return c.Date }
func (c *Close) Kind() string       { return "close" }
func (c *Close) Location() Location { return c.Loc }
func (c *Close) Metadata() *Meta    { return c.Meta }

// Pad inserts an automatic transaction bringing an account up to the next
// balance assertion, posted against the source account.
//
// Example:
//
//	2014-01-01 pad Assets:US:BofA:Checking Equity:Opening-Balances
type Pad struct {
	Loc           Location
	Date          *Date
	Account       Account
	SourceAccount Account
	Meta          *Meta
}

var _ Directive = &Pad{}

func (p *Pad) date() *Date        { return p.Date }
func (p *Pad) Kind() string       { return "pad" }
func (p *Pad) Location() Location { return p.Loc }
func (p *Pad) Metadata() *Meta    { return p.Meta }

// Balance asserts the balance of an account at the beginning of its date.
// Tolerance holds the optional explicit "~ N" tolerance, which is only
// accepted while the experiment_explicit_tolerances option is enabled.
//
// Example:
//
//	2014-08-09 balance Assets:US:BofA:Checking 562.00 USD
type Balance struct {
	Loc       Location
	Date      *Date
	Account   Account
	Amount    *Amount
	Tolerance *decimal.Decimal
	Meta      *Meta
}

var _ Directive = &Balance{}

func (b *Balance) date() *Date        { return b.Date }
func (b *Balance) Kind() string       { return "balance" }
func (b *Balance) Location() Location { return b.Loc }
func (b *Balance) Metadata() *Meta    { return b.Meta }

// Note attaches a dated comment to an account.
//
// Example:
//
//	2014-07-09 note Assets:US:BofA:Checking "Called about direct deposit"
type Note struct {
	Loc     Location
	Date    *Date
	Account Account
	Comment string
	Meta    *Meta
}

var _ Directive = &Note{}

func (n *Note) date() *Date        { return n.Date }
func (n *Note) Kind() string       { return "note" }
func (n *Note) Location() Location { return n.Loc }
func (n *Note) Metadata() *Meta    { return n.Meta }

// Document associates an external file with an account. Relative paths are
// resolved against the directory of the file that declared them.
//
// Example:
//
//	2014-07-09 document Assets:US:BofA:Checking "statements/2014-07.pdf"
type Document struct {
	Loc     Location
	Date    *Date
	Account Account
	Path    string
	Meta    *Meta
}

var _ Directive = &Document{}

func (d *Document) date() *Date        { return d.Date }
func (d *Document) Kind() string       { return "document" }
func (d *Document) Location() Location { return d.Loc }
func (d *Document) Metadata() *Meta    { return d.Meta }

// Price declares the price of a commodity in another currency.
//
// Example:
//
//	2014-07-09 price USD 1.08 CAD
type Price struct {
	Loc      Location
	Date     *Date
	Currency string
	Amount   *Amount
	Meta     *Meta
}

var _ Directive = &Price{}

func (p *Price) date() *Date        { return p.Date }
func (p *Price) Kind() string       { return "price" }
func (p *Price) Location() Location { return p.Loc }
func (p *Price) Metadata() *Meta    { return p.Meta }

// Event records a named value at a point in time.
//
// Example:
//
//	2014-07-09 event "location" "New York, USA"
type Event struct {
	Loc   Location
	Date  *Date
	Type  string
	Value string
	Meta  *Meta
}

var _ Directive = &Event{}

func (e *Event) date() *Date        { return e.Date }
func (e *Event) Kind() string       { return "event" }
func (e *Event) Location() Location { return e.Loc }
func (e *Event) Metadata() *Meta    { return e.Meta }

// Query embeds a named query in the directive stream. The directive is
// gated on the experiment_query_directive option.
//
// Example:
//
//	2014-07-09 query "cash" "SELECT account WHERE currency = 'USD'"
type Query struct {
	Loc   Location
	Date  *Date
	Name  string
	Query string
	Meta  *Meta
}

var _ Directive = &Query{}

func (q *Query) date() *Date        { return q.Date }
func (q *Query) Kind() string       { return "query" }
func (q *Query) Location() Location { return q.Loc }
func (q *Query) Metadata() *Meta    { return q.Meta }

// Posting is one leg of a transaction: an account with an optional
// position, price and flag. A nil Position marks a fully elided amount
// (not even a currency); a Position with a nil Number is missing only its
// units. Prices are stored per-unit; the @@ total form is converted when
// the posting is built.
type Posting struct {
	Loc      Location
	Flag     string
	Account  Account
	Position *Position
	Price    *Amount
	Meta     *Meta
}

// Units returns the posting's unit amount, with nil parts where the
// posting is incomplete.
func (p *Posting) Units() *Amount {
	if p.Position == nil {
		return &Amount{}
	}
	return &Amount{Number: p.Position.Number, Currency: p.Position.Lot.Currency}
}

// Transaction records a financial transaction: a flag, optional payee,
// narration, tags, links, and postings that must balance per currency.
//
// Example:
//
//	2014-05-05 * "Cafe Mogador" "Lamb tagine with wine"
//	  Liabilities:CreditCard:CapitalOne  -37.45 USD
//	  Expenses:Food:Restaurant
type Transaction struct {
	Loc       Location
	Date      *Date
	Flag      string
	Payee     string
	Narration string
	Tags      []Tag
	Links     []Link
	Postings  []*Posting
	Meta      *Meta
}

var _ Directive = &Transaction{}

func (t *Transaction) date() *Date        { return t.Date }
func (t *Transaction) Kind() string       { return "transaction" }
func (t *Transaction) Location() Location { return t.Loc }
func (t *Transaction) Metadata() *Meta    { return t.Meta }

// HasTag reports whether the transaction carries the given tag.
func (t *Transaction) HasTag(tag Tag) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}
