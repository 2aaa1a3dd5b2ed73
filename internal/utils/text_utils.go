package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// TextProcessor normalizes and bounds text scraped from the host page before
// it is fingerprinted or shipped to the scoring service
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Normalize collapses whitespace runs into single spaces (newlines are kept),
// trims the result, and applies Unicode NFC so visually identical content
// fingerprints identically
func (tp *TextProcessor) Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	spacePending := false
	for _, r := range text {
		if r == '\n' {
			b.WriteRune('\n')
			spacePending = false
			continue
		}
		if unicode.IsSpace(r) {
			spacePending = true
			continue
		}
		if spacePending && b.Len() > 0 {
			b.WriteRune(' ')
		}
		spacePending = false
		b.WriteRune(r)
	}

	return norm.NFC.String(strings.TrimSpace(b.String()))
}

// Truncate bounds text to maxSize bytes, backing off to a valid UTF-8
// boundary so the scoring service never receives a torn rune
func (tp *TextProcessor) Truncate(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}

	if tp.logger != nil {
		tp.logger.Debug("Email text truncated",
			zap.Int("original_size", len(text)),
			zap.Int("truncated_size", len(truncated)),
			zap.Int("max_size", maxSize))
	}

	return truncated
}

// Process normalizes and truncates in one operation
func (tp *TextProcessor) Process(text string, maxSize int) string {
	return tp.Truncate(tp.Normalize(text), maxSize)
}
