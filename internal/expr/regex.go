package expr

import (
	"regexp"
	"strings"
)

// compileRegex converts a regex literal to RE2. Flags g, i, m, s and u are
// supported; lookarounds and backreferences fail to compile.
func compileRegex(pattern, flags string, pos int) (*Regex, error) {
	var prefix strings.Builder
	global := false
	seen := make(map[rune]bool)

	for _, f := range flags {
		if seen[f] {
			return nil, syntaxErrorf(pos, "duplicate regex flag %q", f)
		}
		seen[f] = true

		switch f {
		case 'g':
			global = true
		case 'i', 'm', 's':
			prefix.WriteRune(f)
		case 'u':
		default:
			return nil, syntaxErrorf(pos, "unsupported regex flag %q", f)
		}
	}

	src := pattern
	if prefix.Len() > 0 {
		src = "(?" + prefix.String() + ")" + pattern
	}

	re, err := regexp.Compile(src)
	if err != nil {
		return nil, syntaxErrorf(pos, "invalid regex /%s/: %v", pattern, err)
	}

	return &Regex{re: re, global: global, source: pattern, flags: flags}, nil
}

// expandReplacement writes repl to b, substituting $&, $1..$99 and $$.
// groups[0] is the whole match; unknown groups expand to "".
func expandReplacement(b *cappedBuilder, repl string, groups []string) {
	if !strings.Contains(repl, "$") {
		b.WriteString(repl)
		return
	}

	for i := 0; i < len(repl) && !b.Over(); i++ {
		c := repl[i]
		if c != '$' || i+1 >= len(repl) {
			b.WriteByte(c)
			continue
		}

		next := repl[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(groups[0])
			i++
		case isDigit(next):
			n := int(next - '0')
			consumed := 1
			// two-digit group reference when that group exists
			if i+2 < len(repl) && isDigit(repl[i+2]) {
				two := n*10 + int(repl[i+2]-'0')
				if two > 0 && two < len(groups) {
					n = two
					consumed = 2
				}
			}
			if n == 0 || n >= len(groups) {
				b.WriteByte('$')
				continue
			}
			b.WriteString(groups[n])
			i += consumed
		default:
			b.WriteByte('$')
		}
	}
}

// replaceRegex replaces the first match of r in s, or every match when r is
// global or all is set. ok is false when the result would pass
// MaxStringLength.
func replaceRegex(s string, r *Regex, repl string, all bool) (string, bool) {
	limit := 1
	if r.global || all {
		limit = -1
	}

	matches := r.re.FindAllStringSubmatchIndex(s, limit)
	if len(matches) == 0 {
		return s, true
	}

	var b cappedBuilder
	groups := make([]string, len(matches[0])/2)
	last := 0
	for _, m := range matches {
		for g := range groups {
			groups[g] = ""
			if m[2*g] >= 0 {
				groups[g] = s[m[2*g]:m[2*g+1]]
			}
		}
		b.WriteString(s[last:m[0]])
		expandReplacement(&b, repl, groups)
		if b.Over() {
			return "", false
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), !b.Over()
}

// replaceLiteral replaces the first (or every) occurrence of pat in s.
// ok is false when the result would pass MaxStringLength.
func replaceLiteral(s, pat, repl string, all bool) (string, bool) {
	var b cappedBuilder
	if all && pat == "" {
		// JavaScript inserts the replacement between every character
		expandReplacement(&b, repl, []string{""})
		for _, r := range s {
			if b.Over() {
				return "", false
			}
			b.WriteRune(r)
			expandReplacement(&b, repl, []string{""})
		}
		return b.String(), !b.Over()
	}

	idx := strings.Index(s, pat)
	if idx < 0 {
		return s, true
	}

	groups := []string{pat}
	last := 0
	for idx >= 0 && !b.Over() {
		b.WriteString(s[last : last+idx])
		expandReplacement(&b, repl, groups)
		last += idx + len(pat)
		if !all {
			break
		}
		idx = strings.Index(s[last:], pat)
	}
	b.WriteString(s[last:])
	return b.String(), !b.Over()
}
