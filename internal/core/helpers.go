package core

import (
	"sort"
	"strings"
)

// SplitSuffix is appended to a column name to name the column that receives
// the remainder of a split.
const SplitSuffix = "_split"

// SplitColumnName returns the column that splitByChar writes to.
func SplitColumnName(column string) string {
	return column + SplitSuffix
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncate shortens s to at most n runes for log and display output.
func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// normalizeKey lowercases and strips separators so "split-by", "Split By"
// and "splitBy" compare equal.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
