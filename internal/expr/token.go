package expr

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenIdent            // value, Math, toUpperCase
	TokenNumber           // 42, 3.5, .5, 1e3
	TokenString           // 'abc' or "abc"
	TokenRegex            // /pattern/flags
	TokenPunct            // operators and delimiters: ( ) . , ? : + === ...
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenIdent:  "Ident",
	TokenNumber: "Number",
	TokenString: "String",
	TokenRegex:  "Regex",
	TokenPunct:  "Punct",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token.
//
// For TokenString, Value holds the decoded string (escapes resolved).
// For TokenRegex, Value holds the pattern and Flags the trailing flags.
type Token struct {
	Type  TokenType
	Value string
	Flags string
	Pos   int // byte offset in the source
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of expression"
	case TokenString:
		return fmt.Sprintf("string %q", t.Value)
	case TokenRegex:
		return fmt.Sprintf("regex /%s/%s", t.Value, t.Flags)
	default:
		return fmt.Sprintf("%q", t.Value)
	}
}

// is reports whether the token is the given punctuator.
func (t Token) is(punct string) bool {
	return t.Type == TokenPunct && t.Value == punct
}
