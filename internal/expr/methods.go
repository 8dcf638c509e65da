package expr

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// arity bounds the argument count of a callable. max < 0 means variadic.
type arity struct{ min, max int }

// stringMethods, arrayMethods and numberMethods enumerate every method the
// language knows. Unknown names are rejected at compile time.
var (
	stringMethods = map[string]arity{
		"toUpperCase": {0, 0},
		"toLowerCase": {0, 0},
		"trim":        {0, 0},
		"trimStart":   {0, 0},
		"trimEnd":     {0, 0},
		"replace":     {2, 2},
		"replaceAll":  {2, 2},
		"slice":       {0, 2},
		"substring":   {0, 2},
		"split":       {0, 2},
		"startsWith":  {1, 1},
		"endsWith":    {1, 1},
		"includes":    {1, 1},
		"indexOf":     {1, 1},
		"padStart":    {1, 2},
		"padEnd":      {1, 2},
		"repeat":      {1, 1},
		"charAt":      {0, 1},
		"concat":      {0, -1},
		"toString":    {0, 0},
	}

	arrayMethods = map[string]arity{
		"join":     {0, 1},
		"slice":    {0, 2},
		"includes": {1, 1},
		"indexOf":  {1, 1},
		"toString": {0, 0},
	}

	numberMethods = map[string]arity{
		"toFixed":  {0, 1},
		"toString": {0, 0},
	}

	globals = map[string]arity{
		"Number":     {0, 1},
		"String":     {0, 1},
		"parseInt":   {1, 2},
		"parseFloat": {1, 1},
		"isNaN":      {1, 1},
		"Math.round": {1, 1},
		"Math.floor": {1, 1},
		"Math.ceil":  {1, 1},
		"Math.abs":   {1, 1},
		"Math.trunc": {1, 1},
		"Math.min":   {0, -1},
		"Math.max":   {0, -1},
	}
)

// isKnownMethod reports whether any receiver type has a method called name.
func isKnownMethod(name string) bool {
	_, s := stringMethods[name]
	_, a := arrayMethods[name]
	_, n := numberMethods[name]
	return s || a || n
}

// MethodNames returns the sorted names of all string methods.
func MethodNames() []string {
	names := make([]string, 0, len(stringMethods))
	for name := range stringMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkArity(pos int, name string, a arity, n int) *Error {
	if n < a.min || (a.max >= 0 && n > a.max) {
		if a.min == a.max {
			return syntaxErrorf(pos, "%s expects %d argument(s), got %d", name, a.min, n)
		}
		if a.max < 0 {
			return syntaxErrorf(pos, "%s expects at least %d argument(s), got %d", name, a.min, n)
		}
		return syntaxErrorf(pos, "%s expects %d to %d arguments, got %d", name, a.min, a.max, n)
	}
	return nil
}

func callMethod(pos int, recv Value, name string, args []Value) (Value, error) {
	var table map[string]arity
	switch recv.kind {
	case KindString:
		table = stringMethods
	case KindArray:
		table = arrayMethods
	case KindNumber:
		table = numberMethods
	default:
		return nullValue, runtimeErrorf(pos, "cannot call %s on %s", name, recv.kind)
	}

	a, ok := table[name]
	if !ok {
		return nullValue, runtimeErrorf(pos, "%s is not a %s method", name, recv.kind)
	}
	if err := checkArity(pos, name, a, len(args)); err != nil {
		err.Runtime = true
		return nullValue, err
	}

	var (
		out Value
		err error
	)
	switch recv.kind {
	case KindString:
		out, err = stringMethod(pos, recv.str, name, args)
	case KindArray:
		out, err = arrayMethod(pos, recv.arr, name, args)
	default:
		out, err = numberMethod(pos, recv.num, name, args)
	}
	if err != nil {
		return nullValue, err
	}
	if out.kind == KindString && len(out.str) > MaxStringLength {
		return nullValue, tooLong(pos)
	}
	return out, nil
}

func stringMethod(pos int, s, name string, args []Value) (Value, error) {
	switch name {
	case "toUpperCase":
		return String(strings.ToUpper(s)), nil
	case "toLowerCase":
		return String(strings.ToLower(s)), nil
	case "trim":
		return String(strings.TrimFunc(s, unicode.IsSpace)), nil
	case "trimStart":
		return String(strings.TrimLeftFunc(s, unicode.IsSpace)), nil
	case "trimEnd":
		return String(strings.TrimRightFunc(s, unicode.IsSpace)), nil
	case "toString":
		return String(s), nil

	case "replace", "replaceAll":
		all := name == "replaceAll"
		repl := args[1].String()
		if args[0].kind == KindRegex {
			if all && !args[0].re.global {
				return nullValue, runtimeErrorf(pos, "replaceAll requires a global (g) regex")
			}
			out, ok := replaceRegex(s, args[0].re, repl, all)
			if !ok {
				return nullValue, tooLong(pos)
			}
			return String(out), nil
		}
		out, ok := replaceLiteral(s, args[0].String(), repl, all)
		if !ok {
			return nullValue, tooLong(pos)
		}
		return String(out), nil

	case "slice":
		runes := []rune(s)
		start, end := sliceBounds(len(runes), args)
		return String(string(runes[start:end])), nil

	case "substring":
		runes := []rune(s)
		start, end := substringBounds(len(runes), args)
		return String(string(runes[start:end])), nil

	case "split":
		return splitString(s, args), nil

	case "startsWith":
		return Bool(strings.HasPrefix(s, args[0].String())), nil
	case "endsWith":
		return Bool(strings.HasSuffix(s, args[0].String())), nil
	case "includes":
		return Bool(strings.Contains(s, args[0].String())), nil
	case "indexOf":
		idx := strings.Index(s, args[0].String())
		if idx > 0 {
			idx = len([]rune(s[:idx]))
		}
		return Number(float64(idx)), nil

	case "padStart", "padEnd":
		return pad(pos, s, args, name == "padStart")

	case "repeat":
		n := args[0].Number()
		if math.IsNaN(n) {
			n = 0
		}
		if n < 0 || math.IsInf(n, 0) {
			return nullValue, runtimeErrorf(pos, "invalid repeat count %s", formatNumber(n))
		}
		if s == "" || n < 1 {
			return String(""), nil
		}
		// compare as floats; n may not fit in an int
		if n > float64(MaxStringLength/len(s)) {
			return nullValue, tooLong(pos)
		}
		return String(strings.Repeat(s, int(n))), nil

	case "charAt":
		i := 0
		if len(args) > 0 {
			i = toInteger(args[0])
		}
		runes := []rune(s)
		if i < 0 || i >= len(runes) {
			return String(""), nil
		}
		return String(string(runes[i])), nil

	case "concat":
		var sb strings.Builder
		sb.WriteString(s)
		for _, a := range args {
			sb.WriteString(a.String())
			if sb.Len() > MaxStringLength {
				return nullValue, tooLong(pos)
			}
		}
		return String(sb.String()), nil
	}
	return nullValue, runtimeErrorf(pos, "%s is not a string method", name)
}

func arrayMethod(pos int, arr []Value, name string, args []Value) (Value, error) {
	switch name {
	case "join":
		sep := ","
		if len(args) > 0 && args[0].kind != KindNull {
			sep = args[0].String()
		}
		out, ok := joinValues(arr, sep)
		if !ok {
			return nullValue, tooLong(pos)
		}
		return String(out), nil
	case "slice":
		start, end := sliceBounds(len(arr), args)
		out := make([]Value, end-start)
		copy(out, arr[start:end])
		return Array(out), nil
	case "includes":
		for _, v := range arr {
			if strictEqual(v, args[0]) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case "indexOf":
		for i, v := range arr {
			if strictEqual(v, args[0]) {
				return Number(float64(i)), nil
			}
		}
		return Number(-1), nil
	case "toString":
		out, ok := joinValues(arr, ",")
		if !ok {
			return nullValue, tooLong(pos)
		}
		return String(out), nil
	}
	return nullValue, runtimeErrorf(pos, "%s is not an array method", name)
}

func numberMethod(pos int, f float64, name string, args []Value) (Value, error) {
	switch name {
	case "toFixed":
		digits := 0
		if len(args) > 0 {
			digits = toInteger(args[0])
		}
		if digits < 0 || digits > 100 {
			return nullValue, runtimeErrorf(pos, "toFixed digits must be between 0 and 100")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1e21 {
			return String(formatNumber(f)), nil
		}
		return String(strconv.FormatFloat(f, 'f', digits, 64)), nil
	case "toString":
		return String(formatNumber(f)), nil
	}
	return nullValue, runtimeErrorf(pos, "%s is not a number method", name)
}

func callGlobal(pos int, name string, args []Value) (Value, error) {
	arg := func(i int) Value {
		if i < len(args) {
			return args[i]
		}
		return nullValue
	}

	switch name {
	case "Number":
		if len(args) == 0 {
			return Number(0), nil
		}
		return Number(args[0].Number()), nil
	case "String":
		return String(arg(0).String()), nil
	case "parseInt":
		radix := 10
		if len(args) > 1 {
			radix = toInteger(args[1])
		}
		return Number(parseIntPrefix(arg(0).String(), radix)), nil
	case "parseFloat":
		return Number(parseFloatPrefix(arg(0).String())), nil
	case "isNaN":
		return Bool(math.IsNaN(arg(0).Number())), nil
	case "Math.round":
		return Number(math.Floor(arg(0).Number() + 0.5)), nil
	case "Math.floor":
		return Number(math.Floor(arg(0).Number())), nil
	case "Math.ceil":
		return Number(math.Ceil(arg(0).Number())), nil
	case "Math.abs":
		return Number(math.Abs(arg(0).Number())), nil
	case "Math.trunc":
		return Number(math.Trunc(arg(0).Number())), nil
	case "Math.min", "Math.max":
		isMin := name == "Math.min"
		result := math.Inf(1)
		if !isMin {
			result = math.Inf(-1)
		}
		for _, a := range args {
			f := a.Number()
			if math.IsNaN(f) {
				return Number(math.NaN()), nil
			}
			if (isMin && f < result) || (!isMin && f > result) {
				result = f
			}
		}
		return Number(result), nil
	}
	return nullValue, runtimeErrorf(pos, "unknown function %s", name)
}

// toInteger truncates v toward zero; NaN becomes 0.
func toInteger(v Value) int {
	f := v.Number()
	if math.IsNaN(f) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// sliceBounds resolves slice(start, end) arguments against length n;
// negative positions count from the end.
func sliceBounds(n int, args []Value) (int, int) {
	resolve := func(v Value, def int) int {
		if v.kind == KindNull {
			return def
		}
		i := toInteger(v)
		if i < 0 {
			i += n
			if i < 0 {
				i = 0
			}
		}
		if i > n {
			i = n
		}
		return i
	}

	start, end := 0, n
	if len(args) > 0 {
		start = resolve(args[0], 0)
	}
	if len(args) > 1 {
		end = resolve(args[1], n)
	}
	if end < start {
		end = start
	}
	return start, end
}

// substringBounds clamps negatives to 0 and swaps reversed bounds.
func substringBounds(n int, args []Value) (int, int) {
	clamp := func(v Value, def int) int {
		if v.kind == KindNull {
			return def
		}
		i := toInteger(v)
		if i < 0 {
			return 0
		}
		if i > n {
			return n
		}
		return i
	}

	start, end := 0, n
	if len(args) > 0 {
		start = clamp(args[0], 0)
	}
	if len(args) > 1 {
		end = clamp(args[1], n)
	}
	if start > end {
		start, end = end, start
	}
	return start, end
}

func splitString(s string, args []Value) Value {
	limit := -1
	if len(args) > 1 && args[1].kind != KindNull {
		limit = toInteger(args[1])
		if limit < 0 {
			limit = -1
		}
	}

	var parts []string
	switch {
	case len(args) == 0 || args[0].kind == KindNull:
		parts = []string{s}
	case args[0].kind == KindRegex:
		if s == "" {
			parts = []string{""}
		} else {
			parts = args[0].re.re.Split(s, -1)
		}
	default:
		sep := args[0].String()
		if sep == "" {
			parts = make([]string, 0, len(s))
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
	}

	if limit >= 0 && limit < len(parts) {
		parts = parts[:limit]
	}

	vals := make([]Value, len(parts))
	for i, p := range parts {
		vals[i] = String(p)
	}
	return Array(vals)
}

// joinValues joins the string forms of arr with sep, giving up as soon as
// the result would pass MaxStringLength.
func joinValues(arr []Value, sep string) (string, bool) {
	var b cappedBuilder
	for i, v := range arr {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(v.String())
		if b.Over() {
			return "", false
		}
	}
	return b.String(), true
}

func pad(pos int, s string, args []Value, start bool) (Value, error) {
	target := toInteger(args[0])
	if target > MaxStringLength {
		return nullValue, tooLong(pos)
	}
	filler := " "
	if len(args) > 1 && args[1].kind != KindNull {
		filler = args[1].String()
	}

	runes := []rune(s)
	missing := target - len(runes)
	if missing <= 0 || filler == "" {
		return String(s), nil
	}

	fill := []rune(strings.Repeat(filler, missing/len([]rune(filler))+1))[:missing]
	if start {
		return String(string(fill) + s), nil
	}
	return String(s + string(fill)), nil
}

// parseIntPrefix parses the leading integer of s in the given radix,
// returning NaN when there is none.
func parseIntPrefix(s string, radix int) float64 {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if radix == 0 {
		radix = 10
	}
	if (radix == 16 || radix == 10) && len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		radix = 16
		s = s[2:]
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}

	end := 0
	for end < len(s) && digitValue(s[end]) < radix {
		end++
	}
	if end == 0 {
		return math.NaN()
	}

	result := 0.0
	for i := 0; i < end; i++ {
		result = result*float64(radix) + float64(digitValue(s[i]))
	}
	if neg {
		result = -result
	}
	return result
}

func digitValue(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'z':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 10
	}
	return 99
}

// parseFloatPrefix parses the longest leading decimal number of s.
func parseFloatPrefix(s string) float64 {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") {
		return math.Inf(1)
	}
	if strings.HasPrefix(s, "-Infinity") {
		return math.Inf(-1)
	}

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
