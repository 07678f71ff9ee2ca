// Package options implements the registry of ledger processing options.
//
// The registry is a fixed catalog: every option has an expected arity
// (scalar or accumulating list), an optional converter/validator, a
// default value, and flags for deprecated and read-only entries. Setting
// an unknown or read-only option is an error that leaves the map
// unchanged; setting a deprecated option still applies the value but
// reports the deprecation, remapping onto the replacement option where one
// exists.
package options

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the global residual tolerance used when neither a
// per-currency override nor an inferred precision applies.
var DefaultTolerance = decimal.RequireFromString("0.015")

// BookingMethods is the set of booking method names accepted by the open
// directive.
var BookingMethods = map[string]bool{
	"STRICT":  true,
	"NONE":    true,
	"AVERAGE": true,
	"FIFO":    true,
	"LIFO":    true,
}

// Plugin names a plugin module with its optional configuration string.
type Plugin struct {
	Name   string
	Config string
}

// UnknownOptionError reports an option name missing from the catalog.
type UnknownOptionError struct {
	Name string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("Invalid option: '%s'", e.Name)
}

// ReadOnlyOptionError reports an attempt to set an internal-only option.
type ReadOnlyOptionError struct {
	Name string
}

func (e *ReadOnlyOptionError) Error() string {
	return fmt.Sprintf("Option '%s' may not be set", e.Name)
}

// InvalidValueError reports a value rejected by an option's converter.
type InvalidValueError struct {
	Name string
	Err  error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("Error for option '%s': %v", e.Name, e.Err)
}

func (e *InvalidValueError) Unwrap() error { return e.Err }

// converter validates and coerces a raw option string.
type converter func(value string) (any, error)

// descriptor describes one catalog entry.
type descriptor struct {
	def        any       // default value; a []any or map default marks an accumulator
	list       bool      // accumulating list of values
	mapping    bool      // accumulating map (value format "KEY:VALUE")
	convert    converter // nil means keep the raw string
	deprecated string    // non-empty: deprecation message
	remap      string    // deprecated option applies onto this name instead
	readOnly   bool
}

func convertBool(value string) (any, error) {
	switch strings.ToLower(value) {
	case "true", "on", "1", "yes":
		return true, nil
	case "false", "off", "0", "no":
		return false, nil
	}
	return nil, fmt.Errorf("invalid boolean %q", value)
}

func convertDecimal(value string) (any, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", value)
	}
	return d, nil
}

func convertInt(value string) (any, error) {
	d, err := decimal.NewFromString(value)
	if err != nil || !d.IsInteger() {
		return nil, fmt.Errorf("invalid integer %q", value)
	}
	return int(d.IntPart()), nil
}

// convertCurrencyTolerance parses "CURRENCY:NUMBER" (or "*:NUMBER") pairs
// for the default_tolerance accumulator.
func convertCurrencyTolerance(value string) (any, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected CURRENCY:TOLERANCE, got %q", value)
	}
	currency := strings.TrimSpace(parts[0])
	tol, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid tolerance in %q", value)
	}
	return mapEntry{currency, tol}, nil
}

func convertProcessingMode(value string) (any, error) {
	switch value {
	case "default", "raw":
		return value, nil
	}
	return nil, fmt.Errorf("invalid processing mode %q", value)
}

// mapEntry is the converted form of a "KEY:VALUE" option value.
type mapEntry struct {
	key   string
	value any
}

// catalog is the fixed set of recognized options.
var catalog = map[string]descriptor{
	"title":    {def: "Beancount"},
	"filename": {def: "", readOnly: true},

	"name_assets":      {def: "Assets"},
	"name_liabilities": {def: "Liabilities"},
	"name_equity":      {def: "Equity"},
	"name_income":      {def: "Income"},
	"name_expenses":    {def: "Expenses"},

	"include":   {list: true, readOnly: true},
	"documents": {list: true},
	"plugin": {
		list:       true,
		deprecated: "The 'plugin' option is deprecated; it should be replaced by the 'plugin' directive",
	},
	"operating_currency": {list: true},

	"render_commas":       {def: false, convert: convertBool},
	"long_string_maxlines": {def: 64, convert: convertInt},
	"booking_method": {def: "STRICT", convert: func(value string) (any, error) {
		if !BookingMethods[value] {
			return nil, fmt.Errorf("invalid booking method %q", value)
		}
		return value, nil
	}},
	"processing_mode": {def: "default", convert: convertProcessingMode},

	"tolerance":                {def: DefaultTolerance, convert: convertDecimal},
	"default_tolerance":        {mapping: true, convert: convertCurrencyTolerance},
	"infer_tolerance_from_cost": {def: false, convert: convertBool},

	"allow_negative_prices":         {def: false, convert: convertBool},
	"experiment_query_directive":    {def: false, convert: convertBool},
	"experiment_explicit_tolerances": {def: false, convert: convertBool},
}

// Map holds the resolved option values for one parse. It is seeded with
// the catalog defaults and outlives the parse that filled it.
type Map struct {
	scalars map[string]any
	lists   map[string][]any
	maps    map[string]map[string]any
	plugins []Plugin
}

// NewMap creates an options map seeded with defaults. The resolved source
// filename is recorded under the read-only "filename" option.
func NewMap(filename string) *Map {
	m := &Map{
		scalars: make(map[string]any),
		lists:   make(map[string][]any),
		maps:    make(map[string]map[string]any),
	}
	for name, desc := range catalog {
		switch {
		case desc.list:
			m.lists[name] = nil
		case desc.mapping:
			m.maps[name] = make(map[string]any)
		default:
			m.scalars[name] = desc.def
		}
	}
	m.scalars["filename"] = filename
	return m
}

// Set validates and stores an option assignment. On failure the map is
// unchanged and a typed error describes the rejection. A non-empty
// deprecated return carries the deprecation notice for an option that was
// nevertheless applied.
func (m *Map) Set(name, value string) (deprecated string, err error) {
	desc, ok := catalog[name]
	if !ok {
		return "", &UnknownOptionError{Name: name}
	}
	if desc.readOnly {
		return "", &ReadOnlyOptionError{Name: name}
	}

	converted := any(value)
	if desc.convert != nil {
		converted, err = desc.convert(value)
		if err != nil {
			return "", &InvalidValueError{Name: name, Err: err}
		}
	}

	// Deprecated options still apply for backward compatibility, remapped
	// where a replacement exists.
	target := name
	if desc.deprecated != "" {
		deprecated = desc.deprecated
		if desc.remap != "" {
			target = desc.remap
			desc = catalog[target]
		}
	}

	switch {
	case target == "plugin":
		m.plugins = append(m.plugins, Plugin{Name: value})
	case desc.list:
		m.lists[target] = append(m.lists[target], converted)
	case desc.mapping:
		entry, ok := converted.(mapEntry)
		if !ok {
			return deprecated, &InvalidValueError{Name: name, Err: fmt.Errorf("expected KEY:VALUE, got %q", value)}
		}
		m.maps[target][entry.key] = entry.value
	default:
		m.scalars[target] = converted
	}

	return deprecated, nil
}

// AddInclude records a file named by an include directive.
func (m *Map) AddInclude(filename string) {
	m.lists["include"] = append(m.lists["include"], filename)
}

// AddPlugin records a plugin directive.
func (m *Map) AddPlugin(name, config string) {
	m.plugins = append(m.plugins, Plugin{Name: name, Config: config})
}

// Title returns the ledger title.
func (m *Map) Title() string { return m.scalars["title"].(string) }

// Filename returns the resolved source filename of the parse.
func (m *Map) Filename() string { return m.scalars["filename"].(string) }

// Bool returns the value of a boolean option, false for unknown names.
func (m *Map) Bool(name string) bool {
	v, _ := m.scalars[name].(bool)
	return v
}

// Int returns the value of an integer option, zero for unknown names.
func (m *Map) Int(name string) int {
	v, _ := m.scalars[name].(int)
	return v
}

// String returns the value of a string option, empty for unknown names.
func (m *Map) String(name string) string {
	v, _ := m.scalars[name].(string)
	return v
}

// Strings returns the accumulated values of a list option.
func (m *Map) Strings(name string) []string {
	values := m.lists[name]
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Includes returns the files named by include directives and options.
func (m *Map) Includes() []string { return m.Strings("include") }

// Documents returns the accumulated document root directories.
func (m *Map) Documents() []string { return m.Strings("documents") }

// OperatingCurrencies returns the declared operating currencies.
func (m *Map) OperatingCurrencies() []string { return m.Strings("operating_currency") }

// Plugins returns the plugins registered by directives or the deprecated
// option form, in order of appearance.
func (m *Map) Plugins() []Plugin { return m.plugins }

// Tolerance returns the global default residual tolerance.
func (m *Map) Tolerance() decimal.Decimal {
	if v, ok := m.scalars["tolerance"].(decimal.Decimal); ok {
		return v
	}
	return DefaultTolerance
}

// DefaultTolerances returns the per-currency tolerance overrides, keyed by
// currency code or the wildcard "*".
func (m *Map) DefaultTolerances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m.maps["default_tolerance"]))
	for currency, v := range m.maps["default_tolerance"] {
		if d, ok := v.(decimal.Decimal); ok {
			out[currency] = d
		}
	}
	return out
}

// Merge folds options accumulated while parsing an included file into this
// map. Scalars keep the including file's values; accumulators append.
func (m *Map) Merge(child *Map) {
	if child == nil {
		return
	}
	for name, values := range child.lists {
		if name == "include" {
			// Include lists stay per-file so the loader can track what each
			// file pulled in.
			continue
		}
		m.lists[name] = append(m.lists[name], values...)
	}
	for name, entries := range child.maps {
		for k, v := range entries {
			if _, ok := m.maps[name][k]; !ok {
				m.maps[name][k] = v
			}
		}
	}
	m.plugins = append(m.plugins, child.plugins...)
}
