package lexer

import (
	"testing"

	"github.com/leapstack-labs/sqlwhat/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.TokenType
	}{
		{"empty", "", []token.TokenType{token.EOF}},
		{"select", "SELECT a FROM b", []token.TokenType{token.SELECT, token.IDENT, token.FROM, token.IDENT, token.EOF}},
		{"keywords ignore case", "select Distinct", []token.TokenType{token.SELECT, token.DISTINCT, token.EOF}},
		{"arithmetic", "1+2*3", []token.TokenType{token.NUMBER, token.PLUS, token.NUMBER, token.STAR, token.NUMBER, token.EOF}},
		{"comparisons", "<= <> != >= < > =", []token.TokenType{token.LE, token.NE, token.NE, token.GE, token.LT, token.GT, token.EQ, token.EOF}},
		{"concat and cast", "a || b::int", []token.TokenType{token.IDENT, token.DPIPE, token.IDENT, token.DCOLON, token.IDENT, token.EOF}},
		{"punctuation", "t.a, (b);", []token.TokenType{token.IDENT, token.DOT, token.IDENT, token.COMMA, token.LPAREN, token.IDENT, token.RPAREN, token.SEMI, token.EOF}},
		{"illegal", "#", []token.TokenType{token.ILLEGAL, token.EOF}},
		{"lone pipe", "|", []token.TokenType{token.ILLEGAL, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types(Tokenize(tt.input)))
		})
	}
}

func TestLiterals(t *testing.T) {
	toks := Tokenize(`'it''s' "Odd ""name""" 4.5e-3 12`)
	require.Len(t, toks, 5)

	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, "it's", toks[0].Literal)
	assert.Equal(t, token.IDENT, toks[1].Type)
	assert.Equal(t, `Odd "name"`, toks[1].Literal)
	assert.Equal(t, token.NUMBER, toks[2].Type)
	assert.Equal(t, "4.5e-3", toks[2].Literal)
	assert.Equal(t, "12", toks[3].Literal)
}

func TestUnterminatedString(t *testing.T) {
	toks := Tokenize("'abc")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, "abc", toks[0].Literal)
}

func TestPositions(t *testing.T) {
	toks := Tokenize("SELECT a\nFROM b")
	require.Len(t, toks, 5)

	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	assert.Equal(t, token.Position{Line: 1, Column: 7, Offset: 6}, toks[0].End)
	assert.Equal(t, "1:8", toks[1].Pos.String())
	assert.Equal(t, 2, toks[2].Pos.Line)
	assert.Equal(t, 9, toks[2].Pos.Offset)
	assert.True(t, toks[0].Span().Contains(3))
	assert.False(t, toks[0].Span().Contains(6))
}

func TestComments(t *testing.T) {
	l := New("SELECT a -- pick a\nFROM /* the table */ b")
	var got []token.TokenType
	for {
		tok := l.NextToken()
		got = append(got, tok.Type)
		if tok.Type == token.EOF {
			break
		}
	}

	assert.Equal(t, []token.TokenType{token.SELECT, token.IDENT, token.FROM, token.IDENT, token.EOF}, got)
	require.Len(t, l.Comments, 2)
	assert.False(t, l.Comments[0].Block)
	assert.Equal(t, "-- pick a", l.Comments[0].Text)
	assert.Equal(t, "pick a", l.Comments[0].Body())
	assert.True(t, l.Comments[1].Block)
	assert.Equal(t, "the table", l.Comments[1].Body())
	assert.Equal(t, 2, l.Comments[1].Span.Start.Line)
}
