package parser

import (
	"fmt"

	"github.com/NateJackDev/beancount/ast"
)

// Error is implemented by every error recorded during a parse pass. All of
// them carry a source location and, where one exists, the entry that was
// being built when the problem was found.
type Error interface {
	error
	Location() ast.Location
	RelatedEntry() ast.Directive
}

// formatLocation renders the "filename:line:" prefix shared by all parse
// error messages.
func formatLocation(loc ast.Location) string {
	if loc.Filename == "" {
		return fmt.Sprintf("line %d", loc.Line)
	}
	return fmt.Sprintf("%s:%d", loc.Filename, loc.Line)
}

// LexerError reports an unrecognized token run or an eagerly-invalid
// literal such as an impossible calendar date.
type LexerError struct {
	Loc     ast.Location
	Message string
}

func (e *LexerError) Error() string {
	return fmt.Sprintf("%s: %s", formatLocation(e.Loc), e.Message)
}

func (e *LexerError) Location() ast.Location      { return e.Loc }
func (e *LexerError) RelatedEntry() ast.Directive { return nil }

// SyntaxError reports a token sequence that matches no grammar rule. The
// directive being parsed when it occurred contributes no entry.
type SyntaxError struct {
	Loc     ast.Location
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", formatLocation(e.Loc), e.Message)
}

func (e *SyntaxError) Location() ast.Location      { return e.Loc }
func (e *SyntaxError) RelatedEntry() ast.Directive { return nil }

// ParserError reports a semantic violation inside an otherwise valid rule:
// an unknown option, a gated directive used while disabled, duplicate
// metadata, an unsupported lot-spec feature, or a builder failure.
type ParserError struct {
	Loc     ast.Location
	Message string
	Entry   ast.Directive
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("%s: %s", formatLocation(e.Loc), e.Message)
}

func (e *ParserError) Location() ast.Location      { return e.Loc }
func (e *ParserError) RelatedEntry() ast.Directive { return e.Entry }

// DeprecatedError reports use of a deprecated option. The value is still
// applied for backward compatibility.
type DeprecatedError struct {
	Loc     ast.Location
	Message string
}

func (e *DeprecatedError) Error() string {
	return fmt.Sprintf("%s: %s", formatLocation(e.Loc), e.Message)
}

func (e *DeprecatedError) Location() ast.Location      { return e.Loc }
func (e *DeprecatedError) RelatedEntry() ast.Directive { return nil }

// newSyntaxErrorf builds a SyntaxError at the given location.
func newSyntaxErrorf(loc ast.Location, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// newParserErrorf builds a ParserError at the given location.
func newParserErrorf(loc ast.Location, format string, args ...interface{}) *ParserError {
	return &ParserError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}
