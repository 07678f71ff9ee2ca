package parser

import (
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/options"
)

// LotComponent is one component of a `{...}` cost clause, in source
// order. Exactly one field is meaningful per component; the builder folds
// the list into a LotSpec and reports duplicates.
type LotComponent struct {
	Cost  *ast.CompoundAmount
	Date  *ast.Date
	Label *string
	Merge bool
}

// Builder receives one callback per grammar rule and accumulates the
// entries, errors and options of a parse. The parser holds no entry state
// of its own, so substituting a builder changes what parsing produces
// without touching the grammar. A panic inside any callback is caught by
// the parser, reported as an error, and the entry under construction is
// dropped.
type Builder interface {
	// Options returns the options accumulated so far. The parser reads
	// them for context-dependent rules.
	Options() *options.Map

	// Undated directives.
	Option(loc ast.Location, name, value string)
	Include(loc ast.Location, filename string)
	Plugin(loc ast.Location, name, config string)
	Pushtag(loc ast.Location, tag ast.Tag)
	Poptag(loc ast.Location, tag ast.Tag)

	// Intermediate values.
	KeyValue(key string, value *ast.MetaValue) ast.MetaPair
	Amount(number decimal.Decimal, currency string, span ast.Span) *ast.Amount
	CompoundAmount(perUnit, total *decimal.Decimal, currency string) *ast.CompoundAmount
	LotSpec(loc ast.Location, comps []LotComponent) ast.LotSpec
	LotSpecTotal(loc ast.Location, cost *ast.Amount, date *ast.Date) ast.LotSpec
	Position(loc ast.Location, number *decimal.Decimal, currency string, lot *ast.LotSpec) *ast.Position
	Posting(loc ast.Location, flag string, account ast.Account, position *ast.Position, price *ast.Amount, priceTotal bool, kvlist []ast.MetaPair) *ast.Posting

	// Dated directives.
	Open(loc ast.Location, date *ast.Date, account ast.Account, currencies []string, booking string, kvlist []ast.MetaPair)
	Close(loc ast.Location, date *ast.Date, account ast.Account, kvlist []ast.MetaPair)
	Commodity(loc ast.Location, date *ast.Date, currency string, kvlist []ast.MetaPair)
	Pad(loc ast.Location, date *ast.Date, account, source ast.Account, kvlist []ast.MetaPair)
	Balance(loc ast.Location, date *ast.Date, account ast.Account, amount *ast.Amount, tolerance *decimal.Decimal, kvlist []ast.MetaPair)
	Note(loc ast.Location, date *ast.Date, account ast.Account, comment string, kvlist []ast.MetaPair)
	Document(loc ast.Location, date *ast.Date, account ast.Account, path string, kvlist []ast.MetaPair)
	Price(loc ast.Location, date *ast.Date, currency string, amount *ast.Amount, kvlist []ast.MetaPair)
	Event(loc ast.Location, date *ast.Date, eventType, value string, kvlist []ast.MetaPair)
	Query(loc ast.Location, date *ast.Date, name, query string, kvlist []ast.MetaPair)
	Transaction(loc ast.Location, date *ast.Date, flag string, strs []string, tags []ast.Tag, links []ast.Link, kvlist []ast.MetaPair, postings []*ast.Posting)

	// AddError records an error against the parse.
	AddError(err error)

	// Result closes the builder, reporting tags left on the stack, and
	// returns everything accumulated.
	Result() *Result
}

// DefaultBuilder is the standard Builder: it validates semantic rules,
// applies the tag stack, resolves document paths and accumulates entries
// in source order.
type DefaultBuilder struct {
	filename string
	opts     *options.Map
	tagStack []ast.Tag
	entries  ast.Directives
	errs     []error
}

var _ Builder = &DefaultBuilder{}

// NewBuilder creates a builder for one source file. The filename seeds
// the options map and resolves relative document paths.
func NewBuilder(filename string) *DefaultBuilder {
	return &DefaultBuilder{
		filename: filename,
		opts:     options.NewMap(filename),
	}
}

func (b *DefaultBuilder) Options() *options.Map { return b.opts }

func (b *DefaultBuilder) AddError(err error) {
	b.errs = append(b.errs, err)
}

func (b *DefaultBuilder) addEntry(entry ast.Directive) {
	b.entries = append(b.entries, entry)
}

// Option applies an `option` directive. Unknown names, read-only options
// and invalid values are errors; deprecated options apply with a
// deprecation warning.
func (b *DefaultBuilder) Option(loc ast.Location, name, value string) {
	deprecated, err := b.opts.Set(name, value)
	if err != nil {
		b.AddError(newParserErrorf(loc, "%s", err.Error()))
		return
	}
	if deprecated != "" {
		b.AddError(&DeprecatedError{Loc: loc, Message: deprecated})
	}
}

func (b *DefaultBuilder) Include(loc ast.Location, filename string) {
	b.opts.AddInclude(filename)
}

func (b *DefaultBuilder) Plugin(loc ast.Location, name, config string) {
	b.opts.AddPlugin(name, config)
}

func (b *DefaultBuilder) Pushtag(loc ast.Location, tag ast.Tag) {
	b.tagStack = append(b.tagStack, tag)
}

// Poptag removes the most recent push of the tag. Popping a tag that was
// never pushed is an error.
func (b *DefaultBuilder) Poptag(loc ast.Location, tag ast.Tag) {
	for i := len(b.tagStack) - 1; i >= 0; i-- {
		if b.tagStack[i] == tag {
			b.tagStack = append(b.tagStack[:i], b.tagStack[i+1:]...)
			return
		}
	}
	b.AddError(newParserErrorf(loc, "Attempting to pop absent tag: '%s'", tag))
}

func (b *DefaultBuilder) KeyValue(key string, value *ast.MetaValue) ast.MetaPair {
	return ast.MetaPair{Key: key, Value: value}
}

func (b *DefaultBuilder) Amount(number decimal.Decimal, currency string, span ast.Span) *ast.Amount {
	return &ast.Amount{Number: &number, Currency: currency, Span: span}
}

func (b *DefaultBuilder) CompoundAmount(perUnit, total *decimal.Decimal, currency string) *ast.CompoundAmount {
	return &ast.CompoundAmount{PerUnit: perUnit, Total: total, Currency: currency}
}

// LotSpec folds the components of a `{...}` clause into a LotSpec. Each
// component kind may appear at most once; the first occurrence wins and
// duplicates are reported. Labels and the merge marker are recorded but
// not yet honored downstream, which is reported as well.
func (b *DefaultBuilder) LotSpec(loc ast.Location, comps []LotComponent) ast.LotSpec {
	var lot ast.LotSpec
	for _, comp := range comps {
		switch {
		case comp.Cost != nil:
			cost := b.checkCostSign(loc, comp.Cost)
			if lot.Cost != nil {
				b.AddError(newParserErrorf(loc, "Duplicate cost: '%s', ignoring", cost))
				continue
			}
			lot.Cost = cost

		case comp.Date != nil:
			if lot.Date != nil {
				b.AddError(newParserErrorf(loc, "Duplicate date: '%s', ignoring", comp.Date))
				continue
			}
			lot.Date = comp.Date

		case comp.Label != nil:
			if lot.Label != nil {
				b.AddError(newParserErrorf(loc, "Duplicate label: '%s', ignoring", *comp.Label))
				continue
			}
			lot.Label = comp.Label

		case comp.Merge:
			if lot.Merge != nil {
				b.AddError(newParserErrorf(loc, "Duplicate merge-cost spec"))
				continue
			}
			merge := true
			lot.Merge = &merge
		}
	}

	// Labels and merge markers parse but are not honored downstream yet;
	// report each once per clause regardless of how often they appeared.
	if lot.Label != nil {
		b.AddError(newParserErrorf(loc, "Labels not supported yet: '%s'", *lot.Label))
	}
	if lot.Merge != nil {
		b.AddError(newParserErrorf(loc, "Merge-cost not supported yet"))
	}
	return lot
}

// LotSpecTotal builds the LotSpec for the `{{...}}` total-cost form. The
// per-unit part is exact zero, which marks the cost as a total to divide
// by the units during booking.
func (b *DefaultBuilder) LotSpecTotal(loc ast.Location, cost *ast.Amount, date *ast.Date) ast.LotSpec {
	zero := decimal.Zero
	compound := b.checkCostSign(loc, &ast.CompoundAmount{
		PerUnit:  &zero,
		Total:    cost.Number,
		Currency: cost.Currency,
	})
	return ast.LotSpec{Cost: compound, Date: date}
}

// checkCostSign rejects negative cost values unless negative prices are
// explicitly allowed, flipping the sign so processing can continue.
func (b *DefaultBuilder) checkCostSign(loc ast.Location, cost *ast.CompoundAmount) *ast.CompoundAmount {
	if b.opts.Bool("allow_negative_prices") {
		return cost
	}
	if cost.PerUnit != nil && cost.PerUnit.IsNegative() {
		b.AddError(newParserErrorf(loc, "Negative cost not allowed: %s", cost))
		abs := cost.PerUnit.Abs()
		cost.PerUnit = &abs
	}
	if cost.Total != nil && cost.Total.IsNegative() {
		b.AddError(newParserErrorf(loc, "Negative cost not allowed: %s", cost))
		abs := cost.Total.Abs()
		cost.Total = &abs
	}
	return cost
}

// Position pairs a unit number with its lot. The lot's currency field
// holds the commodity being held, which comes from the unit amount, not
// from the cost clause.
func (b *DefaultBuilder) Position(loc ast.Location, number *decimal.Decimal, currency string, lot *ast.LotSpec) *ast.Position {
	position := &ast.Position{Number: number}
	if lot != nil {
		position.Lot = *lot
	}
	position.Lot.Currency = currency
	return position
}

// Posting assembles one posting. Total (@@) prices are converted to
// per-unit here so every price downstream means the same thing; negative
// prices are rejected unless explicitly allowed.
func (b *DefaultBuilder) Posting(loc ast.Location, flag string, account ast.Account, position *ast.Position, price *ast.Amount, priceTotal bool, kvlist []ast.MetaPair) *ast.Posting {
	meta := b.buildMeta(loc, kvlist, "Duplicate posting metadata field: '%s', ignoring")

	if price != nil && price.Number != nil {
		if price.Number.IsNegative() && !b.opts.Bool("allow_negative_prices") {
			b.AddError(newParserErrorf(loc, "Negative prices are not allowed: %s", price))
			abs := price.Number.Abs()
			price.Number = &abs
		}
		if priceTotal {
			switch {
			case position == nil || position.Number == nil:
				b.AddError(newParserErrorf(loc, "Total price on a posting without units: %s", price))
				price = &ast.Amount{Currency: price.Currency}
			case position.Number.IsZero():
				zero := decimal.Zero
				price.Number = &zero
			default:
				// The sign convention divides by the unit magnitude, so a
				// total on a negative position still yields a positive
				// per-unit price. With negative prices allowed the division
				// is signed.
				units := *position.Number
				if !b.opts.Bool("allow_negative_prices") {
					units = units.Abs()
				}
				perUnit := price.Number.Div(units)
				price.Number = &perUnit
			}
		}
	}

	return &ast.Posting{
		Loc:      loc,
		Flag:     flag,
		Account:  account,
		Position: position,
		Price:    price,
		Meta:     meta,
	}
}

// buildMeta folds a kvlist into a metadata mapping. The first occurrence
// of a key wins; duplicates are reported with the given message.
func (b *DefaultBuilder) buildMeta(loc ast.Location, kvlist []ast.MetaPair, dupFormat string) *ast.Meta {
	if len(kvlist) == 0 {
		return nil
	}
	meta := ast.NewMeta(loc.Filename, loc.Line)
	for _, pair := range kvlist {
		if !meta.Set(pair.Key, pair.Value) {
			b.AddError(newParserErrorf(loc, dupFormat, pair.Key))
		}
	}
	return meta
}

func (b *DefaultBuilder) entryMeta(loc ast.Location, kvlist []ast.MetaPair) *ast.Meta {
	return b.buildMeta(loc, kvlist, "Duplicate metadata field on entry: '%s', ignoring")
}

// Open validates the booking method against the known set before
// recording the entry. An invalid method is reported but kept on the
// entry as written.
func (b *DefaultBuilder) Open(loc ast.Location, date *ast.Date, account ast.Account, currencies []string, booking string, kvlist []ast.MetaPair) {
	if booking != "" && !options.BookingMethods[booking] {
		b.AddError(newParserErrorf(loc, "Invalid booking method: '%s'", booking))
	}
	b.addEntry(&ast.Open{
		Loc:        loc,
		Date:       date,
		Account:    account,
		Currencies: currencies,
		Booking:    booking,
		Meta:       b.entryMeta(loc, kvlist),
	})
}

func (b *DefaultBuilder) Close(loc ast.Location, date *ast.Date, account ast.Account, kvlist []ast.MetaPair) {
	b.addEntry(&ast.Close{
		Loc:     loc,
		Date:    date,
		Account: account,
		Meta:    b.entryMeta(loc, kvlist),
	})
}

func (b *DefaultBuilder) Commodity(loc ast.Location, date *ast.Date, currency string, kvlist []ast.MetaPair) {
	b.addEntry(&ast.Commodity{
		Loc:      loc,
		Date:     date,
		Currency: currency,
		Meta:     b.entryMeta(loc, kvlist),
	})
}

func (b *DefaultBuilder) Pad(loc ast.Location, date *ast.Date, account, source ast.Account, kvlist []ast.MetaPair) {
	b.addEntry(&ast.Pad{
		Loc:           loc,
		Date:          date,
		Account:       account,
		SourceAccount: source,
		Meta:          b.entryMeta(loc, kvlist),
	})
}

// Balance records a balance assertion. The explicit tolerance form is
// gated on the experiment_explicit_tolerances option; while disabled the
// tolerance is reported and dropped, the assertion itself kept.
func (b *DefaultBuilder) Balance(loc ast.Location, date *ast.Date, account ast.Account, amount *ast.Amount, tolerance *decimal.Decimal, kvlist []ast.MetaPair) {
	if tolerance != nil && !b.opts.Bool("experiment_explicit_tolerances") {
		b.AddError(newParserErrorf(loc,
			"Explicit tolerances are not enabled; enable the 'experiment_explicit_tolerances' option to use them"))
		tolerance = nil
	}
	b.addEntry(&ast.Balance{
		Loc:       loc,
		Date:      date,
		Account:   account,
		Amount:    amount,
		Tolerance: tolerance,
		Meta:      b.entryMeta(loc, kvlist),
	})
}

func (b *DefaultBuilder) Note(loc ast.Location, date *ast.Date, account ast.Account, comment string, kvlist []ast.MetaPair) {
	b.addEntry(&ast.Note{
		Loc:     loc,
		Date:    date,
		Account: account,
		Comment: comment,
		Meta:    b.entryMeta(loc, kvlist),
	})
}

// Document records a document link. Relative paths are resolved against
// the directory of the declaring file.
func (b *DefaultBuilder) Document(loc ast.Location, date *ast.Date, account ast.Account, path string, kvlist []ast.MetaPair) {
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(b.filename), path)
	}
	b.addEntry(&ast.Document{
		Loc:     loc,
		Date:    date,
		Account: account,
		Path:    path,
		Meta:    b.entryMeta(loc, kvlist),
	})
}

func (b *DefaultBuilder) Price(loc ast.Location, date *ast.Date, currency string, amount *ast.Amount, kvlist []ast.MetaPair) {
	b.addEntry(&ast.Price{
		Loc:      loc,
		Date:     date,
		Currency: currency,
		Amount:   amount,
		Meta:     b.entryMeta(loc, kvlist),
	})
}

func (b *DefaultBuilder) Event(loc ast.Location, date *ast.Date, eventType, value string, kvlist []ast.MetaPair) {
	b.addEntry(&ast.Event{
		Loc:   loc,
		Date:  date,
		Type:  eventType,
		Value: value,
		Meta:  b.entryMeta(loc, kvlist),
	})
}

// Query records a query directive, which is gated on the
// experiment_query_directive option. While disabled the entry is dropped.
func (b *DefaultBuilder) Query(loc ast.Location, date *ast.Date, name, query string, kvlist []ast.MetaPair) {
	if !b.opts.Bool("experiment_query_directive") {
		b.AddError(newParserErrorf(loc,
			"Query directive is not supported; enable the 'experiment_query_directive' option to use it"))
		return
	}
	b.addEntry(&ast.Query{
		Loc:   loc,
		Date:  date,
		Name:  name,
		Query: query,
		Meta:  b.entryMeta(loc, kvlist),
	})
}

// Transaction assembles a transaction entry. The header strings unpack to
// narration or payee and narration; more than two is an error and the
// entry is dropped. Tags from the active pushtag stack are merged with
// the explicit ones.
func (b *DefaultBuilder) Transaction(loc ast.Location, date *ast.Date, flag string, strs []string, tags []ast.Tag, links []ast.Link, kvlist []ast.MetaPair, postings []*ast.Posting) {
	var payee, narration string
	switch len(strs) {
	case 0:
	case 1:
		narration = strs[0]
	case 2:
		payee, narration = strs[0], strs[1]
	default:
		b.AddError(newParserErrorf(loc, "Too many strings on transaction description: %q", strs))
		return
	}

	b.addEntry(&ast.Transaction{
		Loc:       loc,
		Date:      date,
		Flag:      flag,
		Payee:     payee,
		Narration: narration,
		Tags:      b.mergeTags(tags),
		Links:     dedupe(links),
		Postings:  postings,
		Meta:      b.entryMeta(loc, kvlist),
	})
}

// mergeTags combines the pushtag stack with a transaction's explicit
// tags, stacked tags first, without duplicates.
func (b *DefaultBuilder) mergeTags(tags []ast.Tag) []ast.Tag {
	if len(b.tagStack) == 0 {
		return dedupe(tags)
	}
	merged := make([]ast.Tag, 0, len(b.tagStack)+len(tags))
	merged = append(merged, b.tagStack...)
	merged = append(merged, tags...)
	return dedupe(merged)
}

// dedupe removes repeated values, keeping first occurrences in order.
func dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[T]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Result reports tags left on the stack and returns the accumulated
// entries, errors and options. Entries stay in source order; sorting by
// date is the loader's job.
func (b *DefaultBuilder) Result() *Result {
	for _, tag := range b.tagStack {
		b.AddError(&ParserError{
			Loc:     ast.Location{Filename: b.filename},
			Message: "Unbalanced tag: '" + string(tag) + "'",
		})
	}
	b.tagStack = nil

	return &Result{
		Directives: b.entries,
		Errors:     b.errs,
		Options:    b.opts,
	}
}
