// Package core holds the expense domain model: months, the category
// taxonomy, expense records and amount parsing.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-entered decimal string to a currency amount
// rounded to two decimals.
//
// Both dot (12.34) and comma (12,34) separators are accepted and the third
// decimal is rounded half-up. Zero, negative and malformed inputs return
// ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
func ParseAmount(s string) (float64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	return float64(cents) / 100.0, nil
}

func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, half-up on the third.
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	cents := iv*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}
