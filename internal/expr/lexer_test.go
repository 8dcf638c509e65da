package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Tokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Token
	}{
		{
			name: "method call with regex argument",
			src:  `value.replace(/a+/g, "-")`,
			want: []Token{
				{Type: TokenIdent, Value: "value", Pos: 0},
				{Type: TokenPunct, Value: ".", Pos: 5},
				{Type: TokenIdent, Value: "replace", Pos: 6},
				{Type: TokenPunct, Value: "(", Pos: 13},
				{Type: TokenRegex, Value: "a+", Flags: "g", Pos: 14},
				{Type: TokenPunct, Value: ",", Pos: 19},
				{Type: TokenString, Value: "-", Pos: 21},
				{Type: TokenPunct, Value: ")", Pos: 24},
				{Type: TokenEOF, Pos: 25},
			},
		},
		{
			name: "slash after operand is division",
			src:  "value.length / 2",
			want: []Token{
				{Type: TokenIdent, Value: "value", Pos: 0},
				{Type: TokenPunct, Value: ".", Pos: 5},
				{Type: TokenIdent, Value: "length", Pos: 6},
				{Type: TokenPunct, Value: "/", Pos: 13},
				{Type: TokenNumber, Value: "2", Pos: 15},
				{Type: TokenEOF, Pos: 16},
			},
		},
		{
			name: "longest operator wins",
			src:  "a!==b",
			want: []Token{
				{Type: TokenIdent, Value: "a", Pos: 0},
				{Type: TokenPunct, Value: "!==", Pos: 1},
				{Type: TokenIdent, Value: "b", Pos: 4},
				{Type: TokenEOF, Pos: 5},
			},
		},
		{
			name: "string escapes",
			src:  `'it\'s\tA'`,
			want: []Token{
				{Type: TokenString, Value: "it's\tA", Pos: 0},
				{Type: TokenEOF, Pos: 10},
			},
		},
		{
			name: "slash inside character class",
			src:  `/[/]x/`,
			want: []Token{
				{Type: TokenRegex, Value: "[/]x", Pos: 0},
				{Type: TokenEOF, Pos: 6},
			},
		},
		{
			name: "numbers",
			src:  "1.5e3 .5",
			want: []Token{
				{Type: TokenNumber, Value: "1.5e3", Pos: 0},
				{Type: TokenNumber, Value: ".5", Pos: 6},
				{Type: TokenEOF, Pos: 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLexer(tt.src).Tokenize()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"unterminated string", `"abc`, "unterminated string"},
		{"unterminated regex", `/abc`, "unterminated regex"},
		{"empty regex", `//`, "empty regex"},
		{"unexpected character", `value # 1`, "unexpected character"},
		{"malformed exponent", `1e`, "malformed number"},
		{"identifier after number", `1abc`, "identifier directly after number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.src).Tokenize()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTokenType_String(t *testing.T) {
	assert.Equal(t, "Regex", TokenRegex.String())
	assert.Equal(t, "TokenType(42)", TokenType(42).String())
}
