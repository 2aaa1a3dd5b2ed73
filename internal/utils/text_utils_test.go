package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalize(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses space runs",
			input:    "Verify   your    account",
			expected: "Verify your account",
		},
		{
			name:     "tabs become single spaces",
			input:    "a\t\tb",
			expected: "a b",
		},
		{
			name:     "newlines survive",
			input:    "line1\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "trims leading and trailing whitespace",
			input:    "  click here  ",
			expected: "click here",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    " \t\n ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tp.Normalize(tt.input))
		})
	}
}

func TestNormalize_NFC(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "é" composed vs decomposed must normalize to the same bytes, otherwise
	// the same email would fingerprint differently between renders
	composed := "café"
	decomposed := "café"
	assert.Equal(t, tp.Normalize(composed), tp.Normalize(decomposed))
}

func TestTruncate(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "hello", tp.Truncate("hello", 100))
	})

	t.Run("bounds to max size", func(t *testing.T) {
		long := strings.Repeat("a", 300)
		assert.Len(t, tp.Truncate(long, 200), 200)
	})

	t.Run("zero max size disables truncation", func(t *testing.T) {
		assert.Equal(t, "hello", tp.Truncate("hello", 0))
	})

	t.Run("never tears a rune", func(t *testing.T) {
		text := strings.Repeat("日", 100)
		got := tp.Truncate(text, 100)
		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), 100)
	})
}

func TestProcess(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// Normalization runs first, so collapsed text may fit where raw would not
	input := "a" + strings.Repeat(" ", 50) + "b"
	assert.Equal(t, "a b", tp.Process(input, 10))
}
