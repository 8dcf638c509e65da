package expr

import "strconv"

// MaxSourceLength bounds the size of an expression source.
const MaxSourceLength = 1024

// maxDepth bounds expression nesting.
const maxDepth = 64

// binaryLevels lists binary operators from lowest to highest precedence.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!=", "===", "!=="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

// parser builds an expression tree from tokens.
type parser struct {
	tokens []Token
	pos    int
	depth  int
}

// newParser tokenizes src and returns a parser over the tokens.
func newParser(src string) (*parser, error) {
	if len(src) > MaxSourceLength {
		return nil, syntaxErrorf(MaxSourceLength, "expression longer than %d bytes", MaxSourceLength)
	}
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return &parser{tokens: tokens}, nil
}

// parse parses a complete expression; trailing tokens are an error.
func (p *parser) parse() (node, error) {
	if p.peek().Type == TokenEOF {
		return nil, syntaxErrorf(0, "empty expression")
	}
	n, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, syntaxErrorf(tok.Pos, "unexpected %s", tok)
	}
	return n, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(punct string) (Token, error) {
	tok := p.next()
	if !tok.is(punct) {
		return tok, syntaxErrorf(tok.Pos, "expected %q, found %s", punct, tok)
	}
	return tok, nil
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxDepth {
		return syntaxErrorf(pos, "expression nested deeper than %d levels", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// parseExpression parses a conditional expression: test ? a : b.
func (p *parser) parseExpression() (node, error) {
	start := p.peek().Pos
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer p.leave()

	test, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.peek().is("?") {
		return test, nil
	}
	q := p.next()

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	orElse, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &conditionalNode{at: q.Pos, test: test, then: then, orElse: orElse}, nil
}

// parseBinary parses left-associative binary operators at the given level.
func (p *parser) parseBinary(level int) (node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if !isOneOf(tok, binaryLevels[level]) {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{at: tok.Pos, op: tok.Value, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	tok := p.peek()
	if tok.is("!") || tok.is("-") || tok.is("+") {
		p.next()
		if err := p.enter(tok.Pos); err != nil {
			return nil, err
		}
		defer p.leave()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{at: tok.Pos, op: tok.Value, operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses member access, method calls and indexing.
func (p *parser) parsePostfix() (node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.is("."):
			p.next()
			name := p.next()
			if name.Type != TokenIdent {
				return nil, syntaxErrorf(name.Pos, "expected identifier after '.', found %s", name)
			}
			if p.peek().is("(") {
				if !isKnownMethod(name.Value) {
					return nil, syntaxErrorf(name.Pos, "unknown method %q", name.Value)
				}
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				n = &methodNode{at: name.Pos, object: n, name: name.Value, args: args}
				continue
			}
			if name.Value != "length" {
				return nil, syntaxErrorf(name.Pos, "unknown property %q", name.Value)
			}
			n = &propertyNode{at: name.Pos, object: n, name: name.Value}

		case tok.is("["):
			p.next()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]"); err != nil {
				return nil, err
			}
			n = &indexNode{at: tok.Pos, object: n, index: idx}

		case tok.is("("):
			return nil, syntaxErrorf(tok.Pos, "expression is not callable")

		default:
			return n, nil
		}
	}
}

func (p *parser) parseArgs() ([]node, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var args []node
	if p.peek().is(")") {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.next()
		if tok.is(")") {
			return args, nil
		}
		if !tok.is(",") {
			return nil, syntaxErrorf(tok.Pos, "expected ',' or ')', found %s", tok)
		}
	}
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()

	switch tok.Type {
	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, syntaxErrorf(tok.Pos, "malformed number %q", tok.Value)
		}
		return &literalNode{at: tok.Pos, val: Number(f)}, nil

	case TokenString:
		return &literalNode{at: tok.Pos, val: String(tok.Value)}, nil

	case TokenRegex:
		re, err := compileRegex(tok.Value, tok.Flags, tok.Pos)
		if err != nil {
			return nil, err
		}
		return &literalNode{at: tok.Pos, val: regexValue(re)}, nil

	case TokenIdent:
		return p.parseIdent(tok)

	case TokenPunct:
		if tok.is("(") {
			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}

	return nil, syntaxErrorf(tok.Pos, "unexpected %s", tok)
}

// parseIdent resolves an identifier. The only variable is value; globals
// must be called directly.
func (p *parser) parseIdent(tok Token) (node, error) {
	switch tok.Value {
	case "value":
		return &valueNode{at: tok.Pos}, nil
	case "true":
		return &literalNode{at: tok.Pos, val: Bool(true)}, nil
	case "false":
		return &literalNode{at: tok.Pos, val: Bool(false)}, nil
	case "null", "undefined":
		return &literalNode{at: tok.Pos, val: nullValue}, nil
	case "NaN":
		return &literalNode{at: tok.Pos, val: Number(nan())}, nil
	case "Infinity":
		return &literalNode{at: tok.Pos, val: Number(inf())}, nil
	}

	name := tok.Value
	if name == "Math" {
		if _, err := p.expect("."); err != nil {
			return nil, err
		}
		member := p.next()
		if member.Type != TokenIdent {
			return nil, syntaxErrorf(member.Pos, "expected identifier after 'Math.', found %s", member)
		}
		name = "Math." + member.Value
	}

	a, ok := globals[name]
	if !ok {
		return nil, syntaxErrorf(tok.Pos, "unknown identifier %q", name)
	}
	if !p.peek().is("(") {
		return nil, syntaxErrorf(tok.Pos, "%s must be called", name)
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if err := checkArity(tok.Pos, name, a, len(args)); err != nil {
		return nil, err
	}
	return &globalNode{at: tok.Pos, name: name, args: args}, nil
}

func isOneOf(tok Token, ops []string) bool {
	if tok.Type != TokenPunct {
		return false
	}
	for _, op := range ops {
		if tok.Value == op {
			return true
		}
	}
	return false
}
