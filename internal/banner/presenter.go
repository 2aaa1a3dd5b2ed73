package banner

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/core"
)

// Surface is where banners are physically rendered. The host environment
// provides it; the presenter only manages the slot and its lifecycle.
type Surface interface {
	// Show renders a banner
	Show(b *Banner) error

	// Remove takes a rendered banner down
	Remove(id string) error
}

// Presenter manages the single banner slot: build, show, replace, and
// dismiss (manual or timed). It implements core.Presenter.
type Presenter struct {
	surface  Surface
	logger   *zap.Logger
	maxFlags int
	dismiss  map[core.Tier]time.Duration

	mu      sync.Mutex
	current *Banner
	timer   *time.Timer
}

// NewPresenter creates a new presenter
func NewPresenter(
	surface Surface,
	logger *zap.Logger,
	maxFlags int,
	dismissLow, dismissMedium, dismissHigh time.Duration,
) *Presenter {
	return &Presenter{
		surface:  surface,
		logger:   logger,
		maxFlags: maxFlags,
		dismiss: map[core.Tier]time.Duration{
			core.TierLow:    dismissLow,
			core.TierMedium: dismissMedium,
			core.TierHigh:   dismissHigh,
		},
	}
}

// Present shows a banner for the verdict, replacing any banner already
// visible, and schedules its auto-dismissal
func (p *Presenter) Present(verdict *core.Verdict) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removeLocked()

	b := p.build(verdict)
	if err := p.surface.Show(b); err != nil {
		p.logger.Warn("Failed to render banner", zap.Error(err))
		return
	}
	p.current = b

	delay := p.dismiss[b.Tier]
	id := b.ID
	p.timer = time.AfterFunc(delay, func() {
		p.removeByID(id)
	})

	p.logger.Debug("Banner presented",
		zap.String("banner_id", b.ID),
		zap.String("tier", string(b.Tier)),
		zap.Duration("auto_dismiss", delay))
}

// Dismiss removes the visible banner, if any. Safe to call at any time,
// including after the auto-dismiss already fired.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked()
}

// Current returns the visible banner, or nil
func (p *Presenter) Current() *Banner {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// build maps a verdict onto a banner: tier scheme, score, threat label,
// advice only at medium and above, and at most maxFlags explanatory flags
func (p *Presenter) build(verdict *core.Verdict) *Banner {
	tier := verdict.Tier()

	threat := verdict.ThreatType
	if threat == "" {
		threat = "-"
	}

	advice := ""
	if tier != core.TierLow {
		advice = verdict.Advice
		if advice == "" {
			advice = "Be careful!"
		}
	}

	flags := verdict.Flags
	if p.maxFlags >= 0 && len(flags) > p.maxFlags {
		flags = flags[:p.maxFlags]
	}

	return &Banner{
		ID:          uuid.NewString(),
		Tier:        tier,
		Scheme:      SchemeFor(tier),
		Score:       verdict.RiskScore,
		ThreatLabel: threat,
		Advice:      advice,
		Flags:       flags,
		CreatedAt:   time.Now(),
	}
}

// removeByID is the auto-dismiss path: it only removes the banner it was
// scheduled for, so a stale timer from a replaced banner never takes down
// its successor
func (p *Presenter) removeByID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.ID != id {
		return
	}
	p.removeLocked()
}

// removeLocked tears down the current banner and cancels its timer. No-op
// when nothing is visible. Callers must hold p.mu.
func (p *Presenter) removeLocked() {
	if p.current == nil {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if err := p.surface.Remove(p.current.ID); err != nil {
		p.logger.Debug("Failed to remove banner", zap.Error(err))
	}
	p.current = nil
}
