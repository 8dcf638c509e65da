// Package expr implements the small expression language used by the
// custom expression operation.
//
// A program is a single expression over the variable value, which is bound
// to the current cell as a string. The language is a sandboxed subset of
// JavaScript expression syntax: string, number and boolean literals, regex
// literals, arithmetic, comparison, logical and conditional operators, and a
// fixed catalog of string, array and number methods plus a few globals such
// as Number(), parseInt() and Math.round(). There are no assignments, loops,
// function definitions or access to anything outside the cell value.
//
//	value.toUpperCase()
//	value.replace(/\s+/g, "-")
//	value.split(",")[0].trim()
//	Number(value) > 100 ? "high" : "low"
//
// Regex literals are compiled to RE2, so lookarounds and backreferences are
// rejected at compile time. Every produced string is capped at
// MaxStringLength bytes and sources at MaxSourceLength bytes.
package expr

import "math"

// Program is a compiled expression. It is safe for concurrent use.
type Program struct {
	source string
	root   node
}

// Compile parses src into a Program. Errors match ErrSyntax.
func Compile(src string) (*Program, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Program{source: src, root: root}, nil
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// Eval evaluates the program with value bound to cell. Errors match ErrRuntime.
func (p *Program) Eval(cell string) (Value, error) {
	v, err := p.root.eval(&env{value: cell})
	if err != nil {
		return nullValue, err
	}
	if v.kind == KindString && len(v.str) > MaxStringLength {
		return nullValue, runtimeErrorf(p.root.pos(), "string result exceeds %d bytes", MaxStringLength)
	}
	return v, nil
}

// EvalString evaluates the program and converts the result to a cell value.
// null and undefined results become the empty string.
func (p *Program) EvalString(cell string) (string, error) {
	v, err := p.Eval(cell)
	if err != nil {
		return "", err
	}
	out := v.String()
	if len(out) > MaxStringLength {
		return "", runtimeErrorf(p.root.pos(), "string result exceeds %d bytes", MaxStringLength)
	}
	return out, nil
}

func nan() float64 { return math.NaN() }

func inf() float64 { return math.Inf(1) }
