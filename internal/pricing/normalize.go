// Package pricing converts locale-formatted price text into canonical
// whole-unit integer amounts.
package pricing

import (
	"strconv"
	"strings"

	"mhedlund/pricetracker/pkg/errors"
)

// Normalize parses raw price text into a positive whole-unit amount.
//
// The input may carry currency symbols, unit suffixes, thousand separators of
// variable style and whitespace including non-breaking space ("3 997 kr",
// "1.234,56", "4 500:-"). A trailing separator followed by exactly two digits
// is treated as a decimal marker and the fractional part is dropped, since
// target comparisons operate on whole units. Every other separator is
// thousands grouping. Fails with an unparsable-price error when no digits
// remain or the amount is not positive.
func Normalize(raw string) (int64, error) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}

	s := strings.Trim(b.String(), ".,")
	if s == "" {
		return 0, errors.NewUnparsablePrice("", raw)
	}

	// A single decimal marker has exactly two trailing digits.
	if i := strings.LastIndexAny(s, ".,"); i >= 0 && len(s)-i-1 == 2 {
		s = s[:i]
	}

	s = strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, errors.NewUnparsablePrice("", raw)
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, errors.NewUnparsablePrice("", raw)
	}
	return v, nil
}
