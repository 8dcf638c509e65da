package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/montanaflynn/stats"
)

// maxTopValues bounds ColumnProfile.TopValues.
const maxTopValues = 5

// ColumnProfile summarizes the values of one column.
type ColumnProfile struct {
	Column       string          `json:"column"`
	Rows         int             `json:"rows"`
	Empty        int             `json:"empty"`
	Distinct     int             `json:"distinct"`
	MinLength    int             `json:"minLength"`
	MaxLength    int             `json:"maxLength"`
	MeanLength   float64         `json:"meanLength"`
	MedianLength float64         `json:"medianLength"`
	TopValues    []ValueCount    `json:"topValues,omitempty"`
	Numeric      *NumericProfile `json:"numeric,omitempty"`
}

// ValueCount is a value and how often it occurs.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// NumericProfile is present when every non-empty value parses as a number.
type NumericProfile struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
}

// BuildProfile computes the profile of column. Lengths count runes.
func BuildProfile(t *Table, column string) (*ColumnProfile, error) {
	if !t.HasColumn(column) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	values := t.ColumnValues(column)
	p := &ColumnProfile{Column: column, Rows: len(values)}
	if len(values) == 0 {
		return p, nil
	}

	counts := make(map[string]int, len(values))
	lengths := make([]float64, len(values))
	var numbers []float64
	numeric := true

	for i, v := range values {
		counts[v]++
		lengths[i] = float64(utf8.RuneCountInString(v))

		if strings.TrimSpace(v) == "" {
			p.Empty++
			continue
		}
		if !numeric {
			continue
		}
		if f, ok := parseNumeric(v); ok {
			numbers = append(numbers, f)
		} else {
			numeric = false
		}
	}
	p.Distinct = len(counts)
	p.TopValues = topValues(counts, maxTopValues)

	var err error
	if p.MeanLength, err = stats.Mean(lengths); err != nil {
		return nil, fmt.Errorf("length mean: %w", err)
	}
	if p.MedianLength, err = stats.Median(lengths); err != nil {
		return nil, fmt.Errorf("length median: %w", err)
	}
	minLen, _ := stats.Min(lengths)
	maxLen, _ := stats.Max(lengths)
	p.MinLength, p.MaxLength = int(minLen), int(maxLen)

	if numeric && len(numbers) > 0 {
		np, err := numericProfile(numbers)
		if err != nil {
			return nil, err
		}
		p.Numeric = np
	}

	return p, nil
}

func numericProfile(data []float64) (*NumericProfile, error) {
	np := &NumericProfile{Count: len(data)}

	var err error
	if np.Min, err = stats.Min(data); err != nil {
		return nil, fmt.Errorf("numeric min: %w", err)
	}
	if np.Max, err = stats.Max(data); err != nil {
		return nil, fmt.Errorf("numeric max: %w", err)
	}
	if np.Mean, err = stats.Mean(data); err != nil {
		return nil, fmt.Errorf("numeric mean: %w", err)
	}
	if np.Median, err = stats.Median(data); err != nil {
		return nil, fmt.Errorf("numeric median: %w", err)
	}
	if np.StdDev, err = stats.StandardDeviation(data); err != nil {
		return nil, fmt.Errorf("numeric stddev: %w", err)
	}
	return np, nil
}

// parseNumeric accepts plain decimals with optional thousands separators.
func parseNumeric(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}
	return f, true
}

// topValues returns the n most frequent values, ties broken by value.
func topValues(counts map[string]int, n int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
