package parser

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func scanTypes(input string) []TokenType {
	tokens := NewLexer([]byte(input), "test").ScanAll()
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexerSymbols(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"flags", "* !", []TokenType{ASTERISK, EXCLAIM, EOF}},
		{"braces", "{ }", []TokenType{LBRACE, RBRACE, EOF}},
		{"double braces", "{{ }}", []TokenType{LDBRACE, RDBRACE, EOF}},
		{"at", "@", []TokenType{AT, EOF}},
		{"double at", "@@", []TokenType{ATAT, EOF}},
		{"arithmetic", "( 1 + 2 ) * 3 / 4", []TokenType{LPAREN, NUMBER, PLUS, NUMBER, RPAREN, ASTERISK, NUMBER, SLASH, NUMBER, EOF}},
		{"tilde", "~", []TokenType{TILDE, EOF}},
		{"bare hash", "# 9.95", []TokenType{HASH, NUMBER, EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanTypes(tt.input))
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123", "123"},
		{"123.45", "123.45"},
		{"-123.45", "-123.45"},
		{"+42", "+42"},
		{"0.50", "0.50"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer([]byte(tt.input), "test")
			tokens := lexer.ScanAll()

			assert.Equal(t, NUMBER, tokens[0].Type)
			assert.Equal(t, tt.want, tokens[0].String([]byte(tt.input)))
		})
	}
}

func TestLexerDates(t *testing.T) {
	lexer := NewLexer([]byte("2014-05-05"), "test")
	tokens := lexer.ScanAll()

	assert.Equal(t, DATE, tokens[0].Type)
	assert.Equal(t, "2014-05-05", tokens[0].String([]byte("2014-05-05")))
	assert.Equal(t, 0, len(lexer.Errors()))
}

func TestLexerInvalidDate(t *testing.T) {
	// An impossible calendar date is caught at scan time.
	lexer := NewLexer([]byte("2014-13-45"), "test")
	tokens := lexer.ScanAll()

	assert.Equal(t, ERROR, tokens[0].Type)
	assert.Equal(t, 1, len(lexer.Errors()))
}

func TestLexerKeywords(t *testing.T) {
	input := "txn balance open close commodity pad note document price event query option include plugin pushtag poptag"
	want := []TokenType{
		TXN, BALANCE, OPEN, CLOSE, COMMODITY, PAD, NOTE, DOCUMENT,
		PRICE, EVENT, QUERY, OPTION, INCLUDE, PLUGIN, PUSHTAG, POPTAG, EOF,
	}
	assert.Equal(t, want, scanTypes(input))
}

func TestLexerAccountsAndIdents(t *testing.T) {
	source := []byte("Assets:US:BofA:Checking USD lowercase")
	tokens := NewLexer(source, "test").ScanAll()

	assert.Equal(t, ACCOUNT, tokens[0].Type)
	assert.Equal(t, "Assets:US:BofA:Checking", tokens[0].String(source))
	assert.Equal(t, IDENT, tokens[1].Type)
	assert.Equal(t, "USD", tokens[1].String(source))
	assert.Equal(t, IDENT, tokens[2].Type)
}

func TestLexerTagsAndLinks(t *testing.T) {
	source := []byte("#berlin-2014 ^receipt-72")
	tokens := NewLexer(source, "test").ScanAll()

	assert.Equal(t, TAG, tokens[0].Type)
	assert.Equal(t, "#berlin-2014", tokens[0].String(source))
	assert.Equal(t, LINK, tokens[1].Type)
	assert.Equal(t, "^receipt-72", tokens[1].String(source))
}

func TestLexerStrings(t *testing.T) {
	source := []byte(`"hello \"world\""`)
	tokens := NewLexer(source, "test").ScanAll()

	assert.Equal(t, STRING, tokens[0].Type)
	assert.Equal(t, `"hello \"world\""`, tokens[0].String(source))
}

func TestLexerUnterminatedString(t *testing.T) {
	lexer := NewLexer([]byte(`"no closing quote`), "test")
	tokens := lexer.ScanAll()

	assert.Equal(t, ERROR, tokens[0].Type)
	assert.Equal(t, 1, len(lexer.Errors()))
	assert.Contains(t, lexer.Errors()[0].Error(), "unterminated string")
}

func TestLexerErrorRunRecovery(t *testing.T) {
	// The bad run is consumed to the whitespace boundary and scanning
	// continues with the next token intact.
	source := []byte("%%% 100.00 USD")
	lexer := NewLexer(source, "test")
	tokens := lexer.ScanAll()

	assert.Equal(t, []TokenType{ERROR, NUMBER, IDENT, EOF}, scanTypes(string(source)))
	assert.Equal(t, 1, len(lexer.Errors()))
	assert.Contains(t, lexer.Errors()[0].Error(), "invalid token")
	assert.Equal(t, "100.00", tokens[1].String(source))
}

func TestLexerComments(t *testing.T) {
	input := "; a comment line\n2014-05-05 ; trailing\nUSD"
	assert.Equal(t, []TokenType{DATE, IDENT, EOF}, scanTypes(input))
}

func TestLexerLineAndColumnTracking(t *testing.T) {
	source := []byte("2014-05-05 open Assets:Checking\n  USD")
	tokens := NewLexer(source, "test").ScanAll()

	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 1, tokens[0].Column)
	assert.Equal(t, 1, tokens[1].Line)
	assert.Equal(t, 12, tokens[1].Column)
	assert.Equal(t, 2, tokens[3].Line)
	assert.Equal(t, 3, tokens[3].Column)
}

func TestInterner(t *testing.T) {
	interner := NewInterner(16)

	a := interner.InternBytes([]byte("USD"))
	b := interner.Intern("USD")
	assert.Equal(t, a, b)
	assert.Equal(t, 1, interner.Size())
}
