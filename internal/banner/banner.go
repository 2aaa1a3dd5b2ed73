// Package banner owns the single transient notification surfacing a verdict
// to the user. At most one banner is visible at any time; presenting a new
// verdict unconditionally replaces the old banner, and every banner
// auto-dismisses after a tier-dependent delay so dangerous verdicts stay on
// screen longest.
package banner

import (
	"time"

	"github.com/aman/webmail-guard/internal/core"
)

// Scheme is the visual treatment of one risk tier
type Scheme struct {
	Background string
	Border     string
	Text       string
	Icon       string
	Title      string
	Subtitle   string
}

var schemes = map[core.Tier]Scheme{
	core.TierHigh: {
		Background: "#fee2e2",
		Border:     "#f87171",
		Text:       "#b91c1c",
		Icon:       "🚨",
		Title:      "Warning - high risk!",
		Subtitle:   "Do not interact!",
	},
	core.TierMedium: {
		Background: "#fef3c7",
		Border:     "#fbbf24",
		Text:       "#b45309",
		Icon:       "⚠️",
		Title:      "Suspicious message",
		Subtitle:   "Proceed with caution",
	},
	core.TierLow: {
		Background: "#d1fae5",
		Border:     "#34d399",
		Text:       "#065f46",
		Icon:       "✅",
		Title:      "Looks safe",
		Subtitle:   "No threat detected",
	},
}

// SchemeFor returns the visual scheme of a tier
func SchemeFor(tier core.Tier) Scheme {
	return schemes[tier]
}

// Banner is the rendered notification for one verdict
type Banner struct {
	ID          string
	Tier        core.Tier
	Scheme      Scheme
	Score       int
	ThreatLabel string
	Advice      string
	Flags       []core.Flag
	CreatedAt   time.Time
}
