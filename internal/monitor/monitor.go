// Package monitor decides when the displayed email should be (re-)analyzed.
// Three triggers feed one debounced re-evaluation: a one-shot delay after
// startup, a change of the page's navigation address, and the appearance of
// an email-body structure in the page. Each trigger waits a short fixed
// delay first so the host finishes rendering before extraction runs.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/extract"
	"github.com/aman/webmail-guard/internal/page"
)

// Service is the analysis entry point all triggers funnel into
type Service interface {
	MaybeAnalyze(ctx context.Context)
}

// Monitor watches a page source and drives the guard service
type Monitor struct {
	source  page.Source
	service Service
	logger  *zap.Logger

	initialDelay    time.Duration
	navigationDelay time.Duration
	contentDelay    time.Duration

	mu      sync.Mutex
	pending *time.Timer
	lastURL string
}

// New creates a monitor over the given page source
func New(
	source page.Source,
	service Service,
	logger *zap.Logger,
	initialDelay, navigationDelay, contentDelay time.Duration,
) *Monitor {
	return &Monitor{
		source:          source,
		service:         service,
		logger:          logger,
		initialDelay:    initialDelay,
		navigationDelay: navigationDelay,
		contentDelay:    contentDelay,
	}
}

// Run consumes the source's change feed until the context is cancelled or
// the feed closes. It always schedules one initial evaluation so an email
// already open at startup is analyzed.
func (m *Monitor) Run(ctx context.Context) error {
	// Prime the navigation baseline with the startup address
	if doc, err := m.source.Snapshot(ctx); err == nil {
		m.mu.Lock()
		m.lastURL = doc.URL
		m.mu.Unlock()
	}

	m.schedule(ctx, m.initialDelay, "initial")

	changes := m.source.Changes()
	for {
		select {
		case <-ctx.Done():
			m.cancelPending()
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				m.cancelPending()
				return nil
			}
			m.handleChange(ctx)
		}
	}
}

// handleChange classifies a change hint: navigation address moved, or email
// content newly present
func (m *Monitor) handleChange(ctx context.Context) {
	doc, err := m.source.Snapshot(ctx)
	if err != nil {
		m.logger.Debug("Change hint without readable page", zap.Error(err))
		return
	}

	if doc.URL != "" && m.navigationMoved(doc.URL) {
		m.schedule(ctx, m.navigationDelay, "navigation")
		return
	}

	if extract.HasEmailBody(doc.HTML) {
		m.schedule(ctx, m.contentDelay, "content")
	}
}

func (m *Monitor) navigationMoved(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if url == m.lastURL {
		return false
	}
	m.lastURL = url
	return true
}

// schedule arms a debounced evaluation after the render-settle delay. A
// pending evaluation is pushed back rather than duplicated; the service's
// own single-flight and fingerprint checks make any surplus run a no-op.
func (m *Monitor) schedule(ctx context.Context, delay time.Duration, trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug("Scheduling analysis",
		zap.String("trigger", trigger),
		zap.Duration("delay", delay))

	if m.pending != nil && m.pending.Reset(delay) {
		return
	}
	m.pending = time.AfterFunc(delay, func() {
		m.clearPending()
		if ctx.Err() != nil {
			return
		}
		m.service.MaybeAnalyze(ctx)
	})
}

func (m *Monitor) clearPending() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

func (m *Monitor) cancelPending() {
	m.mu.Lock()
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.mu.Unlock()
}
