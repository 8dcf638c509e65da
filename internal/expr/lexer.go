package expr

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// punctuators lists multi-character operators first so the longest match wins.
var punctuators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||",
	"(", ")", "[", "]", ".", ",", "?", ":",
	"+", "-", "*", "/", "%", "<", ">", "!",
}

// Lexer performs lexical analysis of an expression source.
type Lexer struct {
	src  string
	pos  int
	prev *Token // last emitted token, used to tell a regex from a division
}

// NewLexer creates a new lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.src) {
		return l.emit(Token{Type: TokenEOF, Pos: l.pos}), nil
	}

	b := l.src[l.pos]

	switch {
	case b == '\'' || b == '"':
		return l.readString(b)
	case isDigit(b) || (b == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.readNumber()
	case isIdentStart(b):
		return l.readIdent(), nil
	case b == '/' && l.regexAllowed():
		return l.readRegex()
	}

	for _, p := range punctuators {
		if strings.HasPrefix(l.src[l.pos:], p) {
			tok := Token{Type: TokenPunct, Value: p, Pos: l.pos}
			l.pos += len(p)
			return l.emit(tok), nil
		}
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return Token{}, syntaxErrorf(l.pos, "unexpected character %q", r)
}

// Tokenize returns every token up to and including EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) emit(tok Token) Token {
	l.prev = &tok
	return tok
}

// regexAllowed reports whether a '/' at the current position starts a regex
// literal. After an operand (identifier, literal, ')' or ']') it is a division.
func (l *Lexer) regexAllowed() bool {
	if l.prev == nil {
		return true
	}
	switch l.prev.Type {
	case TokenIdent, TokenNumber, TokenString, TokenRegex:
		return false
	case TokenPunct:
		return l.prev.Value != ")" && l.prev.Value != "]"
	}
	return true
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) readIdent() Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	return l.emit(Token{Type: TokenIdent, Value: l.src[start:l.pos], Pos: start})
}

func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if digits == l.pos {
			return Token{}, syntaxErrorf(start, "malformed number %q", l.src[start:l.pos])
		}
	}
	if l.pos < len(l.src) && isIdentStart(l.src[l.pos]) {
		return Token{}, syntaxErrorf(l.pos, "identifier directly after number")
	}
	text := l.src[start:l.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return Token{}, syntaxErrorf(start, "malformed number %q", text)
	}
	return l.emit(Token{Type: TokenNumber, Value: text, Pos: start}), nil
}

func (l *Lexer) readString(quote byte) (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, syntaxErrorf(start, "unterminated string")
		}
		b := l.src[l.pos]
		switch {
		case b == quote:
			l.pos++
			return l.emit(Token{Type: TokenString, Value: sb.String(), Pos: start}), nil
		case b == '\n':
			return Token{}, syntaxErrorf(l.pos, "newline in string")
		case b == '\\':
			if err := l.readEscape(&sb); err != nil {
				return Token{}, err
			}
		default:
			sb.WriteByte(b)
			l.pos++
		}
	}
}

func (l *Lexer) readEscape(sb *strings.Builder) error {
	escPos := l.pos
	l.pos++ // backslash
	if l.pos >= len(l.src) {
		return syntaxErrorf(escPos, "unterminated escape")
	}
	c := l.src[l.pos]
	l.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case 'u':
		if l.pos+4 > len(l.src) {
			return syntaxErrorf(escPos, "short unicode escape")
		}
		code, err := strconv.ParseUint(l.src[l.pos:l.pos+4], 16, 32)
		if err != nil {
			return syntaxErrorf(escPos, "invalid unicode escape")
		}
		sb.WriteRune(rune(code))
		l.pos += 4
	default:
		// \\ \' \" and any unknown escape stand for the character itself
		sb.WriteByte(c)
	}
	return nil
}

// readRegex reads /pattern/flags. A '/' inside a character class or escaped
// with a backslash does not terminate the pattern.
func (l *Lexer) readRegex() (Token, error) {
	start := l.pos
	l.pos++ // opening slash

	inClass := false
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return Token{}, syntaxErrorf(start, "unterminated regex")
		}
		b := l.src[l.pos]
		if b == '\\' && l.pos+1 < len(l.src) {
			sb.WriteString(l.src[l.pos : l.pos+2])
			l.pos += 2
			continue
		}
		if b == '[' {
			inClass = true
		} else if b == ']' {
			inClass = false
		} else if b == '/' && !inClass {
			l.pos++
			break
		}
		sb.WriteByte(b)
		l.pos++
	}

	flagStart := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}

	if sb.Len() == 0 {
		return Token{}, syntaxErrorf(start, "empty regex")
	}

	return l.emit(Token{
		Type:  TokenRegex,
		Value: sb.String(),
		Flags: l.src[flagStart:l.pos],
		Pos:   start,
	}), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
