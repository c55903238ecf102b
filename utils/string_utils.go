package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// NormalizeLabel lowercases and trims a free-text label.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseAmount parses a currency-like value such as "$12,500.00".
// ok is false for empty, non-numeric, non-finite or non-positive input.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// MaxCycleDays is the largest sales cycle length ParseCycleDays accepts.
const MaxCycleDays = math.MaxInt32

// ParseCycleDays parses a whole number of days in [0, MaxCycleDays].
// Integral floats such as "30.0" are accepted.
func ParseCycleDays(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, n >= 0 && n <= MaxCycleDays
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > MaxCycleDays || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
