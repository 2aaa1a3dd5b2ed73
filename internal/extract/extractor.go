// Package extract scrapes the sender, subject, and body of the currently
// displayed email out of the host page's markup. The markup is an
// environmental fact, not a designed interface: extraction is best-effort
// and fails soft when the structures are absent or have drifted.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/aman/webmail-guard/internal/core"
	"github.com/aman/webmail-guard/internal/page"
	"github.com/aman/webmail-guard/internal/utils"
)

// Extractor pulls an EmailSnapshot out of a page source. It implements
// core.EmailSource.
type Extractor struct {
	source            page.Source
	textProcessor     *utils.TextProcessor
	logger            *zap.Logger
	minBodyLength     int
	fingerprintLength int
}

// NewExtractor creates a new extractor over the given page source
func NewExtractor(
	source page.Source,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	minBodyLength int,
	fingerprintLength int,
) *Extractor {
	return &Extractor{
		source:            source,
		textProcessor:     textProcessor,
		logger:            logger,
		minBodyLength:     minBodyLength,
		fingerprintLength: fingerprintLength,
	}
}

// Extract scrapes the currently displayed email. It returns core.ErrNoEmail
// when the page has no usable email open: no body structure matched, or the
// matched body is shorter than the minimum length (a list view or an empty
// draft rather than a real message).
func (e *Extractor) Extract(ctx context.Context) (*core.EmailSnapshot, error) {
	doc, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("page snapshot unavailable: %w", err)
	}
	return e.FromDocument(doc)
}

// FromDocument scrapes an already captured page observation
func (e *Extractor) FromDocument(doc *page.Document) (*core.EmailSnapshot, error) {
	root, err := html.Parse(bytes.NewReader(doc.HTML))
	if err != nil {
		// Unparseable markup is the host's business, not ours.
		e.logger.Debug("Failed to parse page markup", zap.Error(err))
		return nil, core.ErrNoEmail
	}

	body := e.textProcessor.Normalize(firstText(root, bodySelectors))
	if len(body) < e.minBodyLength {
		return nil, core.ErrNoEmail
	}

	sender := e.extractSender(root)
	subject := strings.TrimSpace(firstText(root, subjectSelectors))

	snapshot := core.NewEmailSnapshot(sender, subject, body, e.fingerprintLength)

	e.logger.Debug("Extracted email",
		zap.String("sender", sender),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)))

	return snapshot, nil
}

// extractSender prefers the address carried in the sender element's `email`
// attribute over its display text
func (e *Extractor) extractSender(root *html.Node) string {
	for _, sel := range senderSelectors {
		n := findFirst(root, sel)
		if n == nil {
			continue
		}
		if addr := attribute(n, "email"); addr != "" {
			return strings.TrimSpace(addr)
		}
		if text := strings.TrimSpace(innerText(n)); text != "" {
			return text
		}
	}
	return ""
}

// firstText returns the inner text of the first selector that matches a node
// with any visible content
func firstText(root *html.Node, selectors []selector) string {
	for _, sel := range selectors {
		if n := findFirst(root, sel); n != nil {
			if text := strings.TrimSpace(innerText(n)); text != "" {
				return text
			}
		}
	}
	return ""
}

// HasEmailBody reports whether the markup contains an email-body structure.
// The change monitor uses it to recognize "an email just appeared" without
// running a full extraction.
func HasEmailBody(markup []byte) bool {
	root, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return false
	}
	for _, sel := range bodySelectors {
		if findFirst(root, sel) != nil {
			return true
		}
	}
	return false
}
