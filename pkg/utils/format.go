package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatUSD formats a price with a dollar sign and two decimals.
func FormatUSD(v float64) string {
	return "$" + addThousandsSeparators(fmt.Sprintf("%.2f", v))
}

// FormatAmount formats a crypto amount, trimming trailing zeros.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// FormatPercent formats a signed percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// addThousandsSeparators inserts commas into the integer part of a
// formatted decimal number.
func addThousandsSeparators(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	n := len(intPart)
	for i, c := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
