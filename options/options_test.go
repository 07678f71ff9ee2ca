package options

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewMapDefaults(t *testing.T) {
	m := NewMap("main.beancount")

	assert.Equal(t, "Beancount", m.Title())
	assert.Equal(t, "main.beancount", m.Filename())
	assert.Equal(t, "Assets", m.String("name_assets"))
	assert.Equal(t, "STRICT", m.String("booking_method"))
	assert.Equal(t, 64, m.Int("long_string_maxlines"))
	assert.False(t, m.Bool("render_commas"))
	assert.Equal(t, "0.015", m.Tolerance().String())
	assert.Equal(t, 0, len(m.Includes()))
	assert.Equal(t, 0, len(m.Plugins()))
}

func TestSetScalar(t *testing.T) {
	m := NewMap("test")

	deprecated, err := m.Set("title", "My Ledger")
	assert.NoError(t, err)
	assert.Equal(t, "", deprecated)
	assert.Equal(t, "My Ledger", m.Title())
}

func TestSetBool(t *testing.T) {
	m := NewMap("test")

	for _, truthy := range []string{"TRUE", "true", "on", "1", "yes"} {
		_, err := m.Set("render_commas", truthy)
		assert.NoError(t, err)
		assert.True(t, m.Bool("render_commas"))
	}
	for _, falsy := range []string{"FALSE", "off", "0", "no"} {
		_, err := m.Set("render_commas", falsy)
		assert.NoError(t, err)
		assert.False(t, m.Bool("render_commas"))
	}

	_, err := m.Set("render_commas", "maybe")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Error for option 'render_commas'")
}

func TestSetInt(t *testing.T) {
	m := NewMap("test")

	_, err := m.Set("long_string_maxlines", "128")
	assert.NoError(t, err)
	assert.Equal(t, 128, m.Int("long_string_maxlines"))

	_, err = m.Set("long_string_maxlines", "12.5")
	assert.Error(t, err)

	// The failed assignment leaves the previous value in place.
	assert.Equal(t, 128, m.Int("long_string_maxlines"))
}

func TestSetUnknownOption(t *testing.T) {
	m := NewMap("test")

	_, err := m.Set("nope", "value")
	assert.Error(t, err)
	assert.Equal(t, "Invalid option: 'nope'", err.Error())

	unknown, ok := err.(*UnknownOptionError)
	assert.True(t, ok)
	assert.Equal(t, "nope", unknown.Name)
}

func TestSetReadOnlyOption(t *testing.T) {
	m := NewMap("test")

	for _, name := range []string{"filename", "include"} {
		_, err := m.Set(name, "value")
		assert.Error(t, err)
		_, ok := err.(*ReadOnlyOptionError)
		assert.True(t, ok)
	}
}

func TestSetBookingMethod(t *testing.T) {
	m := NewMap("test")

	for _, method := range []string{"STRICT", "NONE", "AVERAGE", "FIFO", "LIFO"} {
		_, err := m.Set("booking_method", method)
		assert.NoError(t, err)
	}

	_, err := m.Set("booking_method", "WEIRD")
	assert.Error(t, err)
}

func TestSetDefaultTolerance(t *testing.T) {
	m := NewMap("test")

	_, err := m.Set("default_tolerance", "USD:0.005")
	assert.NoError(t, err)
	_, err = m.Set("default_tolerance", "*:0.5")
	assert.NoError(t, err)

	tolerances := m.DefaultTolerances()
	assert.Equal(t, "0.005", tolerances["USD"].String())
	assert.Equal(t, "0.5", tolerances["*"].String())

	_, err = m.Set("default_tolerance", "no-colon")
	assert.Error(t, err)
}

func TestSetDeprecatedPlugin(t *testing.T) {
	m := NewMap("test")

	deprecated, err := m.Set("plugin", "beancount.plugins.module")
	assert.NoError(t, err)
	assert.Contains(t, deprecated, "deprecated")

	plugins := m.Plugins()
	assert.Equal(t, 1, len(plugins))
	assert.Equal(t, "beancount.plugins.module", plugins[0].Name)
	assert.Equal(t, "", plugins[0].Config)
}

func TestAccumulators(t *testing.T) {
	m := NewMap("test")

	m.AddInclude("a.beancount")
	m.AddInclude("b.beancount")
	assert.Equal(t, []string{"a.beancount", "b.beancount"}, m.Includes())

	m.AddPlugin("mod", "cfg")
	assert.Equal(t, Plugin{Name: "mod", Config: "cfg"}, m.Plugins()[0])

	_, err := m.Set("operating_currency", "USD")
	assert.NoError(t, err)
	_, err = m.Set("operating_currency", "CAD")
	assert.NoError(t, err)
	assert.Equal(t, []string{"USD", "CAD"}, m.OperatingCurrencies())
}

func TestMerge(t *testing.T) {
	parent := NewMap("main.beancount")
	_, err := parent.Set("title", "Parent")
	assert.NoError(t, err)
	_, err = parent.Set("operating_currency", "USD")
	assert.NoError(t, err)
	_, err = parent.Set("default_tolerance", "USD:0.01")
	assert.NoError(t, err)
	parent.AddInclude("child.beancount")

	child := NewMap("child.beancount")
	_, err = child.Set("title", "Child")
	assert.NoError(t, err)
	_, err = child.Set("operating_currency", "CAD")
	assert.NoError(t, err)
	_, err = child.Set("default_tolerance", "USD:0.5")
	assert.NoError(t, err)
	_, err = child.Set("default_tolerance", "CAD:0.05")
	assert.NoError(t, err)
	child.AddInclude("grandchild.beancount")
	child.AddPlugin("mod", "")

	parent.Merge(child)

	// Scalars keep the including file's value.
	assert.Equal(t, "Parent", parent.Title())

	// Lists append, except the per-file include list.
	assert.Equal(t, []string{"USD", "CAD"}, parent.OperatingCurrencies())
	assert.Equal(t, []string{"child.beancount"}, parent.Includes())

	// Map entries are first-wins.
	tolerances := parent.DefaultTolerances()
	assert.Equal(t, "0.01", tolerances["USD"].String())
	assert.Equal(t, "0.05", tolerances["CAD"].String())

	assert.Equal(t, 1, len(parent.Plugins()))
}
