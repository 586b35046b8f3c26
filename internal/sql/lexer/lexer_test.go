package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/granite-db/analyzer/internal/sql/lexer"
)

func TestTokenizeSelect(t *testing.T) {
	tokens, err := lexer.Tokenize("select a.int_col, count(*) from functional.alltypes a -- trailing\n where x <> 1.5e3")
	require.NoError(t, err)

	types := make([]lexer.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []lexer.TokenType{
		lexer.Keyword, lexer.Ident, lexer.Dot, lexer.Ident, lexer.Comma,
		lexer.Ident, lexer.LParen, lexer.Star, lexer.RParen,
		lexer.Keyword, lexer.Ident, lexer.Dot, lexer.Ident, lexer.Ident,
		lexer.Keyword, lexer.Ident, lexer.NotEqual, lexer.Number,
	}, types)
	assert.Equal(t, "SELECT", tokens[0].Literal)
	assert.Equal(t, "count", tokens[5].Literal)
	assert.Equal(t, "1.5e3", tokens[len(tokens)-1].Literal)
}

func TestTokenizeLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  lexer.Token
	}{
		{"'it''s'", lexer.Token{Type: lexer.String, Literal: "it's"}},
		{`"should be an int"`, lexer.Token{Type: lexer.String, Literal: "should be an int"}},
		{"`select`", lexer.Token{Type: lexer.Ident, Literal: "select"}},
		{".5", lexer.Token{Type: lexer.Number, Literal: ".5"}},
		{"!=", lexer.Token{Type: lexer.NotEqual, Literal: "!="}},
		{"[", lexer.Token{Type: lexer.LBracket, Literal: "["}},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			tok := lexer.New(tc.input).Next()
			assert.Equal(t, tc.want.Type, tok.Type)
			assert.Equal(t, tc.want.Literal, tok.Literal)
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	_, err := lexer.Tokenize("select 'open")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated string literal")

	_, err = lexer.Tokenize("select #")
	assert.Error(t, err)
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, lexer.IsKeyword("partition"))
	assert.False(t, lexer.IsKeyword("year"))
}
