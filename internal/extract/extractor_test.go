package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/core"
	"github.com/aman/webmail-guard/internal/page"
	"github.com/aman/webmail-guard/internal/utils"
)

type staticSource struct {
	doc *page.Document
	err error
}

func (s *staticSource) Snapshot(ctx context.Context) (*page.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func (s *staticSource) Changes() <-chan struct{} { return nil }

func (s *staticSource) Close() error { return nil }

func newTestExtractor(markup string) *Extractor {
	logger := zap.NewNop()
	source := &staticSource{doc: &page.Document{URL: "https://mail.google.com/mail/u/0/#inbox/abc", HTML: []byte(markup)}}
	return NewExtractor(source, utils.NewTextProcessor(logger), logger, 5, 200)
}

const modernMessage = `<html><body>
<div data-message-id="m123">
  <span class="gD" email="scammer@fraud.example">Totally Real Bank</span>
  <h2 class="hP">Your account is locked</h2>
  <div class="a3s aiL">Dear customer, verify your account <a href="http://evil">here</a> now.</div>
</div>
</body></html>`

const legacyMessage = `<html><body>
<div role="listitem">
  <span class="gD">Old Sender</span>
  <div class="ii gt">This is the legacy message body structure with enough text.</div>
</div>
</body></html>`

func TestExtract_ModernStructure(t *testing.T) {
	e := newTestExtractor(modernMessage)

	snap, err := e.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "scammer@fraud.example", snap.Sender)
	assert.Equal(t, "Your account is locked", snap.Subject)
	assert.Contains(t, snap.Body, "verify your account")
	assert.Contains(t, snap.Body, "here")
	assert.NotEmpty(t, snap.Fingerprint)
}

func TestExtract_LegacyStructure(t *testing.T) {
	e := newTestExtractor(legacyMessage)

	snap, err := e.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Old Sender", snap.Sender)
	assert.Empty(t, snap.Subject)
	assert.Contains(t, snap.Body, "legacy message body")
}

func TestExtract_SenderAttributePreferred(t *testing.T) {
	e := newTestExtractor(modernMessage)

	snap, err := e.Extract(context.Background())
	require.NoError(t, err)

	// The email attribute beats the display name
	assert.Equal(t, "scammer@fraud.example", snap.Sender)
}

func TestExtract_NoEmailOpen(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"inbox list view", `<html><body><div class="inbox"><span>Message list</span></div></body></html>`},
		{"body too short", `<html><body><div class="a3s aiL">abc</div></body></html>`},
		{"empty body element", `<html><body><div class="a3s aiL">   </div></body></html>`},
		{"empty page", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(tt.markup)
			snap, err := e.Extract(context.Background())
			assert.ErrorIs(t, err, core.ErrNoEmail)
			assert.Nil(t, snap)
		})
	}
}

func TestExtract_NormalizesWhitespace(t *testing.T) {
	e := newTestExtractor(`<html><body><div class="a3s aiL">
		Dear    customer,
		<br>please     respond   today.
	</div></body></html>`)

	snap, err := e.Extract(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, snap.Body, "  ")
	assert.Contains(t, snap.Body, "Dear customer,")
	assert.Contains(t, snap.Body, "please respond today.")
}

func TestExtract_SkipsScriptAndStyleText(t *testing.T) {
	e := newTestExtractor(`<html><body><div class="a3s aiL">
		Visible message body text.
		<script>var hidden = "nope";</script>
		<style>.x { color: red }</style>
	</div></body></html>`)

	snap, err := e.Extract(context.Background())
	require.NoError(t, err)

	assert.Contains(t, snap.Body, "Visible message body text.")
	assert.NotContains(t, snap.Body, "hidden")
	assert.NotContains(t, snap.Body, "color")
}

func TestHasEmailBody(t *testing.T) {
	assert.True(t, HasEmailBody([]byte(modernMessage)))
	assert.True(t, HasEmailBody([]byte(legacyMessage)))
	assert.False(t, HasEmailBody([]byte(`<html><body><div class="inbox">list</div></body></html>`)))
}
