package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/NateJackDev/beancount/ast"
	"github.com/NateJackDev/beancount/output"
)

// fakeError is a minimal located error for renderer tests.
type fakeError struct {
	msg string
	loc ast.Location
}

func (e *fakeError) Error() string          { return e.msg }
func (e *fakeError) Location() ast.Location { return e.loc }

func plainStyles() *output.Styles {
	// A plain writer gets no color codes, so rendered output can be
	// compared as plain text.
	return output.NewStyles(&strings.Builder{})
}

func TestRenderWithoutLocation(t *testing.T) {
	renderer := NewErrorRenderer(plainStyles(), nil)
	assert.Equal(t, "boom", renderer.Render(errors.New("boom")))
}

func TestRenderWithoutSource(t *testing.T) {
	renderer := NewErrorRenderer(plainStyles(), nil)
	err := &fakeError{
		msg: "main.beancount:3: bad things",
		loc: ast.Location{Filename: "main.beancount", Line: 3, Column: 1},
	}
	assert.Equal(t, "main.beancount:3: bad things", renderer.Render(err))
}

func TestRenderShowsContextAndCaret(t *testing.T) {
	source := []byte("line one\nline two\n2014-01-01 open Bad\nline four")
	renderer := NewErrorRenderer(plainStyles(), map[string][]byte{
		"main.beancount": source,
	})
	err := &fakeError{
		msg: "main.beancount:3: unexpected account",
		loc: ast.Location{Filename: "main.beancount", Line: 3, Column: 17},
	}

	got := renderer.Render(err)
	lines := strings.Split(got, "\n")

	assert.Equal(t, "main.beancount:3: unexpected account", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "   line one", lines[2])
	assert.Equal(t, "   line two", lines[3])
	assert.Equal(t, "   2014-01-01 open Bad", lines[4])

	// The caret sits under column 17, offset by the 3-space gutter.
	assert.Equal(t, "   "+strings.Repeat(" ", 16)+"^", lines[5])
}

func TestRenderCaretAlignsByDisplayWidth(t *testing.T) {
	// The wide rune before the error column occupies two cells; the caret
	// must account for both its byte length and its display width.
	source := []byte(`2014-01-01 note Assets:Cash "値" bad`)
	renderer := NewErrorRenderer(plainStyles(), map[string][]byte{
		"main.beancount": source,
	})

	column := strings.Index(string(source), "bad") + 1
	err := &fakeError{
		msg: "main.beancount:1: oops",
		loc: ast.Location{Filename: "main.beancount", Line: 1, Column: column},
	}

	got := renderer.Render(err)
	lines := strings.Split(got, "\n")
	caretLine := lines[len(lines)-2]

	// 33 display cells precede "bad": the wide rune is 3 bytes but 2
	// cells wide.
	assert.Equal(t, "   "+strings.Repeat(" ", 33)+"^", caretLine)
}

func TestRenderAllSortsByLocation(t *testing.T) {
	renderer := NewErrorRenderer(plainStyles(), nil)
	errs := []error{
		&fakeError{msg: "b.beancount:1: second file", loc: ast.Location{Filename: "b.beancount", Line: 1}},
		&fakeError{msg: "a.beancount:9: later line", loc: ast.Location{Filename: "a.beancount", Line: 9}},
		&fakeError{msg: "a.beancount:2: earlier line", loc: ast.Location{Filename: "a.beancount", Line: 2}},
	}

	got := renderer.RenderAll(errs)
	first := strings.Index(got, "a.beancount:2")
	second := strings.Index(got, "a.beancount:9")
	third := strings.Index(got, "b.beancount:1")

	assert.True(t, first >= 0 && first < second)
	assert.True(t, second < third)
}

func TestRenderAllEmpty(t *testing.T) {
	renderer := NewErrorRenderer(plainStyles(), nil)
	assert.Equal(t, "", renderer.RenderAll(nil))
}
