package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"1500", 1500},
		{"1k", 1000},
		{"2K", 2000},
		{"1.5M", 1500000},
		{"1.5m", 1500000},
		{"2b", 2000000000},
		{"0.5t", 500000000000},
		{"0", 0},
		{" 42 ", 42},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Amount(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestAmountRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "k", "M", "-5", "-1.5m", "1.2.3M", "abc", "1q"} {
		t.Run(input, func(t *testing.T) {
			_, err := Amount(input)
			assert.Error(t, err)
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
	}{
		{"30s", 30 * time.Second},
		{"10m", 10 * time.Minute},
		{"2h", 2 * time.Hour},
		{"2H", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"1.5h", 90 * time.Minute},
		{"1h30m", 90 * time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Duration(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDurationRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "h", "0s", "-5m", "soon", "1y"} {
		t.Run(input, func(t *testing.T) {
			_, err := Duration(input)
			assert.Error(t, err)
		})
	}
}
