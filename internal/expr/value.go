package expr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindRegex:
		return "regex"
	}
	return "unknown"
}

// Regex is a compiled regex literal.
type Regex struct {
	re     *regexp.Regexp
	global bool
	source string
	flags  string
}

// Value is the result of evaluating an expression.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []Value
	re   *Regex
}

var nullValue = Value{kind: KindNull}

// String, Number, Bool and Array construct values.
func String(s string) Value     { return Value{kind: KindString, str: s} }
func Number(f float64) Value    { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Array(vs []Value) Value    { return Value{kind: KindArray, arr: vs} }
func regexValue(r *Regex) Value { return Value{kind: KindRegex, re: r} }

// Kind returns the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// String converts v to its display form, following JavaScript's ToString:
// null becomes "", numbers use the shortest round-tripping form and arrays
// are joined with commas.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case KindRegex:
		return "/" + v.re.source + "/" + v.re.flags
	}
	return ""
}

// Number converts v to a number following JavaScript's ToNumber.
func (v Value) Number() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNull:
		return 0
	case KindString:
		return parseNumber(v.str)
	case KindArray:
		if len(v.arr) == 0 {
			return 0
		}
		if len(v.arr) == 1 {
			return v.arr[0].Number()
		}
	}
	return math.NaN()
}

// Truthy reports whether v counts as true in a condition.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBool:
		return v.b
	case KindArray, KindRegex:
		return true
	}
	return false
}

// formatNumber renders f the way JavaScript prints numbers.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber converts a whole string to a number; blank strings are 0 and
// anything unparsable is NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	// strconv accepts forms JavaScript rejects (inf, nan, underscores)
	if strings.ContainsAny(lower, "_in") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// looseEqual implements ==.
func looseEqual(a, b Value) bool {
	if a.kind == b.kind {
		return strictEqual(a, b)
	}
	if a.kind == KindNull || b.kind == KindNull {
		return false
	}
	if a.kind == KindArray || b.kind == KindArray || a.kind == KindRegex || b.kind == KindRegex {
		return a.String() == b.String()
	}
	return a.Number() == b.Number()
}

// strictEqual implements ===. Arrays and regexes never compare equal.
func strictEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindNumber:
		return a.num == b.num
	case KindBool:
		return a.b == b.b
	}
	return false
}
