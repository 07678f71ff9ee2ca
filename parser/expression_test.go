package parser

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func evalExpression(input string) (string, error) {
	source := []byte(input)
	lexer := NewLexer(source, "test")
	p := &Parser{
		source:   source,
		filename: "test",
		tokens:   lexer.ScanAll(),
		interner: lexer.Interner(),
		builder:  NewBuilder("test"),
	}
	value, err := p.parseExpression()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

func TestExpressionEvaluation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"1 + 2", "3"},
		{"10 - 4", "6"},
		{"3 * 4", "12"},
		{"10 / 4", "2.5"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"- 5", "-5"},
		{"+ 5", "5"},
		{"-(2 + 3)", "-5"},
		{"1.1 + 2.2", "3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := evalExpression(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpressionDivisionByZero(t *testing.T) {
	_, err := evalExpression("1 / 0")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestExpressionUnclosedParen(t *testing.T) {
	_, err := evalExpression("(1 + 2")
	assert.Error(t, err)
}

func TestExpressionExactDecimals(t *testing.T) {
	// 0.1 + 0.2 is exactly 0.3 in decimal arithmetic.
	got, err := evalExpression("0.1 + 0.2")
	assert.NoError(t, err)
	assert.Equal(t, "0.3", got)
}
