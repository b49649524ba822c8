// Package parse converts the shorthand users type in chat, like "1.5M"
// for prices and "2h" for durations, into exact values.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var amountSuffixes = map[byte]float64{
	'k': 1_000,
	'm': 1_000_000,
	'b': 1_000_000_000,
	't': 1_000_000_000_000,
}

// Amount parses a numeric string with an optional magnitude suffix:
// "1500", "1k", "1.5M", "2b". Suffixes are case-insensitive.
func Amount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	multiplier := float64(1)
	last := s[len(s)-1]
	if m, ok := amountSuffixes[last|0x20]; ok {
		multiplier = m
		s = s[:len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("amount has no digits")
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("amount must not be negative")
	}

	return int64(value * multiplier), nil
}

var durationUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// Duration parses a duration shorthand: "30s", "10m", "2h", "1d", "1w".
// Plain Go durations ("1h30m") are accepted as well.
func Duration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if unit, ok := durationUnits[s[len(s)-1]]; ok {
		if value, err := strconv.ParseFloat(s[:len(s)-1], 64); err == nil {
			d := time.Duration(value * float64(unit))
			if d <= 0 {
				return 0, fmt.Errorf("duration must be positive")
			}
			return d, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}
