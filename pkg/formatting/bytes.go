// Package formatting converts between byte counts and human-readable sizes
// and extracts JSON values from free-form model output.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Units are base-1024; "KB" and "KiB" both mean 1024 bytes.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above one, e.g. FormatBytes(1536, 1) is "1.5 KB". Negative precision is
// treated as zero.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)
	sign := ""
	size := float64(n)
	if size < 0 {
		sign, size = "-", -size
	}

	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return sign + strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses a size such as "10MB", "1.5 GiB", or "512" (bytes).
// Unit matching is case-insensitive.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, unit := s, ""
	if split >= 0 {
		num, unit = s[:split], strings.TrimSpace(s[split:])
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp, err := unitExponent(unit)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	for range exp {
		value *= 1024
	}
	return int64(value), nil
}

func unitExponent(unit string) (int, error) {
	u := strings.ToUpper(unit)
	if u == "" {
		return 0, nil
	}
	if strings.HasSuffix(u, "IB") && len(u) == 3 {
		u = u[:1] + "B"
	}
	for i, name := range units {
		if u == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown unit %q", unit)
}
