package parser

// Lexer implements a zero-copy scanner for ledger files.
//
// Tokens store byte offsets rather than string values, strings are
// interned on demand, and the token buffer is pre-allocated. A run of
// characters matching no token grammar never aborts the scan: the run is
// consumed up to the next whitespace boundary, a LexerError is recorded,
// and an ERROR token stands in for the run so the parser can resynchronize.

import (
	"bytes"

	"github.com/NateJackDev/beancount/ast"
)

// Lexer tokenizes ledger source code.
type Lexer struct {
	source   []byte
	filename string
	pos      int // Current byte position
	line     int // Current line (1-indexed)
	column   int // Current column (1-indexed)
	tokens   []Token
	errs     []error   // LexerErrors recorded during the scan
	interner *Interner // String interning pool
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source []byte, filename string) *Lexer {
	// Empirically ~1 token per 20 bytes; pre-allocating eliminates most
	// slice growth during the scan.
	estimatedTokens := len(source)/20 + 1000

	internerCap := len(source) / 40
	if internerCap < 2000 {
		internerCap = 2000
	}

	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		column:   1,
		tokens:   make([]Token, 0, estimatedTokens),
		interner: NewInterner(internerCap),
	}
}

// Interner returns the string interner, shared with the parser.
func (l *Lexer) Interner() *Interner {
	return l.interner
}

// Errors returns the LexerErrors recorded while scanning.
func (l *Lexer) Errors() []error {
	return l.errs
}

// ScanAll lexes the entire source and returns all tokens. Single pass, no
// backtracking; malformed runs yield ERROR tokens rather than stopping.
func (l *Lexer) ScanAll() []Token {
	for l.pos < len(l.source) {
		l.skipWhitespace()

		if l.pos >= len(l.source) {
			break
		}

		if l.peek() == ';' {
			l.skipComment()
			continue
		}

		tok := l.scanToken()
		l.tokens = append(l.tokens, tok)
	}

	l.tokens = append(l.tokens, Token{
		Type:   EOF,
		Start:  l.pos,
		End:    l.pos,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens
}

// scanToken scans the next token from the current position.
func (l *Lexer) scanToken() Token {
	start := l.pos
	startLine := l.line
	startCol := l.column

	ch := l.advance()

	switch {
	// Dates look like numbers, so the date pattern check comes first.
	case ch >= '0' && ch <= '9':
		if l.isDatePattern(start) {
			return l.scanDate(start, startLine, startCol)
		}
		return l.scanNumber(start, startLine, startCol)
	case (ch == '-' || ch == '+') && l.peekIsDigit():
		return l.scanNumber(start, startLine, startCol)

	case ch == '"':
		return l.scanString(start, startLine, startCol)

	// A bare '#' is the total-cost separator inside a cost clause; a '#'
	// followed by a name character is a tag.
	case ch == '#':
		if l.peekIsNameChar() {
			return l.scanName(TAG, start, startLine, startCol)
		}
		return Token{HASH, start, l.pos, startLine, startCol}

	case ch == '^':
		return l.scanName(LINK, start, startLine, startCol)

	// Accounts and currencies start with a capital; non-ASCII bytes may
	// open a Unicode letter.
	case ch >= 'A' && ch <= 'Z' || ch >= 0x80:
		return l.scanAccountOrIdent(start, startLine, startCol)

	case ch >= 'a' && ch <= 'z':
		return l.scanKeywordOrIdent(start, startLine, startCol)

	case ch == '*':
		return Token{ASTERISK, start, l.pos, startLine, startCol}
	case ch == '!':
		return Token{EXCLAIM, start, l.pos, startLine, startCol}
	case ch == ':':
		return Token{COLON, start, l.pos, startLine, startCol}
	case ch == ',':
		return Token{COMMA, start, l.pos, startLine, startCol}
	case ch == '+':
		return Token{PLUS, start, l.pos, startLine, startCol}
	case ch == '-':
		return Token{MINUS, start, l.pos, startLine, startCol}
	case ch == '/':
		return Token{SLASH, start, l.pos, startLine, startCol}
	case ch == '(':
		return Token{LPAREN, start, l.pos, startLine, startCol}
	case ch == ')':
		return Token{RPAREN, start, l.pos, startLine, startCol}
	case ch == '~':
		return Token{TILDE, start, l.pos, startLine, startCol}

	case ch == '{':
		if l.peek() == '{' {
			l.advance()
			return Token{LDBRACE, start, l.pos, startLine, startCol}
		}
		return Token{LBRACE, start, l.pos, startLine, startCol}

	case ch == '}':
		if l.peek() == '}' {
			l.advance()
			return Token{RDBRACE, start, l.pos, startLine, startCol}
		}
		return Token{RBRACE, start, l.pos, startLine, startCol}

	case ch == '@':
		if l.peek() == '@' {
			l.advance()
			return Token{ATAT, start, l.pos, startLine, startCol}
		}
		return Token{AT, start, l.pos, startLine, startCol}

	default:
		return l.errorRun(start, startLine, startCol)
	}
}

// errorRun consumes an unrecognized run up to the next whitespace
// boundary, records a LexerError and emits an ERROR token so the scan can
// resume cleanly after the boundary.
func (l *Lexer) errorRun(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			break
		}
		l.advance()
	}

	tok := Token{ERROR, start, l.pos, line, col}
	l.errs = append(l.errs, &LexerError{
		Loc:     l.location(tok),
		Message: "invalid token: '" + tok.String(l.source) + "'",
	})
	return tok
}

// isDatePattern checks whether the position starts a YYYY-MM-DD pattern.
func (l *Lexer) isDatePattern(start int) bool {
	if start+10 > len(l.source) {
		return false
	}

	src := l.source[start:]
	return src[0] >= '0' && src[0] <= '9' &&
		src[1] >= '0' && src[1] <= '9' &&
		src[2] >= '0' && src[2] <= '9' &&
		src[3] >= '0' && src[3] <= '9' &&
		src[4] == '-' &&
		src[5] >= '0' && src[5] <= '9' &&
		src[6] >= '0' && src[6] <= '9' &&
		src[7] == '-' &&
		src[8] >= '0' && src[8] <= '9' &&
		src[9] >= '0' && src[9] <= '9'
}

// scanDate scans a YYYY-MM-DD literal and validates it eagerly: an
// impossible calendar date is a LexerError at scan time, not a parse-time
// surprise.
func (l *Lexer) scanDate(start, line, col int) Token {
	// First digit already consumed, consume the remaining 9.
	for i := 0; i < 9; i++ {
		l.advance()
	}

	tok := Token{DATE, start, l.pos, line, col}
	if _, err := ast.ParseDate(tok.String(l.source)); err != nil {
		tok.Type = ERROR
		l.errs = append(l.errs, &LexerError{
			Loc:     l.location(tok),
			Message: err.Error(),
		})
	}
	return tok
}

// scanNumber scans a number: [-+]?[0-9]+(\.[0-9]+)?
func (l *Lexer) scanNumber(start, line, col int) Token {
	// Optional sign already consumed if present.

	for l.pos < len(l.source) && l.source[l.pos] >= '0' && l.source[l.pos] <= '9' {
		l.advance()
	}

	if l.pos < len(l.source) && l.source[l.pos] == '.' {
		// Only consume the dot when a digit follows.
		if l.pos+1 < len(l.source) && l.source[l.pos+1] >= '0' && l.source[l.pos+1] <= '9' {
			l.advance()
			for l.pos < len(l.source) && l.source[l.pos] >= '0' && l.source[l.pos] <= '9' {
				l.advance()
			}
		}
	}

	return Token{NUMBER, start, l.pos, line, col}
}

// scanString scans a quoted string. Strings may span lines, which is how
// multi-line narrations are written; an unterminated string is an error
// run ending at end of input.
func (l *Lexer) scanString(start, line, col int) Token {
	// Opening quote already consumed.
	terminated := false

	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == '"' {
			l.advance()
			terminated = true
			break
		}
		if ch == '\\' && l.pos+1 < len(l.source) {
			l.advance()
			l.advance()
		} else {
			l.advance()
		}
	}

	tok := Token{STRING, start, l.pos, line, col}
	if !terminated {
		tok.Type = ERROR
		l.errs = append(l.errs, &LexerError{
			Loc:     l.location(tok),
			Message: "unterminated string",
		})
	}
	return tok
}

// scanName scans the name characters of a tag or link, sigil already
// consumed.
func (l *Lexer) scanName(typ TokenType, start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if (ch < 'A' || ch > 'Z') && (ch < 'a' || ch > 'z') &&
			(ch < '0' || ch > '9') && ch != '_' && ch != '-' && ch != '.' {
			break
		}
		l.advance()
	}

	return Token{typ, start, l.pos, line, col}
}

// scanAccountOrIdent scans an account name or identifier starting with a
// capital or Unicode letter. Accounts contain colons (Assets:Bank), plain
// identifiers (USD, TRUE) don't.
func (l *Lexer) scanAccountOrIdent(start, line, col int) Token {
	hasColon := false

	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		isASCIILetter := (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
		isDigit := ch >= '0' && ch <= '9'
		isUTF8 := ch >= 0x80
		isSpecial := ch == ':' || ch == '-' || ch == '_' || ch == '.' || ch == '\''

		if !isASCIILetter && !isDigit && !isUTF8 && !isSpecial {
			break
		}

		if ch == ':' {
			hasColon = true
		}
		l.advance()
	}

	if hasColon {
		return Token{ACCOUNT, start, l.pos, line, col}
	}

	return Token{IDENT, start, l.pos, line, col}
}

// scanKeywordOrIdent scans a keyword or identifier starting with a
// lowercase letter. Lowercase identifiers that are not keywords are
// metadata keys.
func (l *Lexer) scanKeywordOrIdent(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') &&
			(ch < '0' || ch > '9') && ch != '_' && ch != '-' {
			break
		}
		l.advance()
	}

	word := l.source[start:l.pos]
	return Token{l.keywordType(word), start, l.pos, line, col}
}

// keywordType returns the token type for a keyword, or IDENT otherwise.
func (l *Lexer) keywordType(word []byte) TokenType {
	// Byte comparison avoids allocating strings for every word.
	switch {
	case bytes.Equal(word, []byte("txn")):
		return TXN
	case bytes.Equal(word, []byte("balance")):
		return BALANCE
	case bytes.Equal(word, []byte("open")):
		return OPEN
	case bytes.Equal(word, []byte("close")):
		return CLOSE
	case bytes.Equal(word, []byte("commodity")):
		return COMMODITY
	case bytes.Equal(word, []byte("pad")):
		return PAD
	case bytes.Equal(word, []byte("note")):
		return NOTE
	case bytes.Equal(word, []byte("document")):
		return DOCUMENT
	case bytes.Equal(word, []byte("price")):
		return PRICE
	case bytes.Equal(word, []byte("event")):
		return EVENT
	case bytes.Equal(word, []byte("query")):
		return QUERY
	case bytes.Equal(word, []byte("option")):
		return OPTION
	case bytes.Equal(word, []byte("include")):
		return INCLUDE
	case bytes.Equal(word, []byte("plugin")):
		return PLUGIN
	case bytes.Equal(word, []byte("pushtag")):
		return PUSHTAG
	case bytes.Equal(word, []byte("poptag")):
		return POPTAG
	default:
		return IDENT
	}
}

// location converts a token into an ast.Location in this file.
func (l *Lexer) location(tok Token) ast.Location {
	return ast.Location{
		Filename: l.filename,
		Offset:   tok.Start,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

// skipWhitespace skips whitespace and updates line/column tracking.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			break
		}
		if ch == '\n' {
			l.line++
			l.column = 1
			l.pos++
		} else {
			l.column++
			l.pos++
		}
	}
}

// skipComment skips a comment line (;...)
func (l *Lexer) skipComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.pos++
	}
	if l.pos < len(l.source) && l.source[l.pos] == '\n' {
		l.pos++
		l.line++
		l.column = 1
	}
}

// Helper methods

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekIsDigit() bool {
	if l.pos >= len(l.source) {
		return false
	}
	ch := l.source[l.pos]
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) peekIsNameChar() bool {
	if l.pos >= len(l.source) {
		return false
	}
	ch := l.source[l.pos]
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') ||
		(ch >= '0' && ch <= '9') || ch == '_' || ch == '-' || ch == '.'
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}
