package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when a price or balance string is not a
// finite number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseCents converts a decimal string such as "12.5" into cents.  Empty
// input is zero.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return int64(math.Round(f * 100)), nil
}

// CentsFromFloat rounds a float amount to cents.
func CentsFromFloat(f float64) int64 { return int64(math.Round(f * 100)) }

// FormatCents renders cents as a two-decimal string, e.g. 2500 -> "25.00".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
