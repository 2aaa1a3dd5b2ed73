package core

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

// Tier is the risk tier derived from a verdict's score
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Risk score thresholds for tier classification
const (
	HighRiskThreshold   = 70
	MediumRiskThreshold = 40
)

// TierForScore classifies a risk score into exactly one tier
func TierForScore(score int) Tier {
	switch {
	case score >= HighRiskThreshold:
		return TierHigh
	case score >= MediumRiskThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// EmailSnapshot is the extracted representation of the currently displayed email
type EmailSnapshot struct {
	Sender      string `json:"sender"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

// NewEmailSnapshot builds a snapshot and its fingerprint. The fingerprint is a
// bounded prefix of the combined text, used only as a cheap equality probe for
// change detection, never as a real identity.
func NewEmailSnapshot(sender, subject, body string, fingerprintLen int) *EmailSnapshot {
	s := &EmailSnapshot{
		Sender:  sender,
		Subject: subject,
		Body:    body,
	}
	s.Fingerprint = fingerprintOf(s.FullText(), fingerprintLen)
	return s
}

// FullText returns the normalized text blob submitted to the scoring service
func (s *EmailSnapshot) FullText() string {
	return fmt.Sprintf("From: %s\nSubject: %s\n\n%s", s.Sender, s.Subject, s.Body)
}

// fingerprintOf takes a byte-bounded prefix, backing off to a valid UTF-8 boundary
func fingerprintOf(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	prefix := text[:maxLen]
	for len(prefix) > 0 && !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

// Flag is one explanatory signal attached to a verdict
type Flag struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// RemedyAction is one recommended follow-up attached to a verdict
type RemedyAction struct {
	Icon        string `json:"icon"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Verdict is the structured risk assessment returned by the scoring service.
// Every field is optional on the wire; zero values are the documented
// defaults. A verdict is never mutated after receipt.
type Verdict struct {
	RiskScore  int            `json:"risk_score"`
	ThreatType string         `json:"threat_type"`
	Advice     string         `json:"advice"`
	Flags      []Flag         `json:"flags"`
	Actions    []RemedyAction `json:"actions"`

	AnalyzedAt   time.Time `json:"-"`
	Provider     string    `json:"-"`
	ProcessingID string    `json:"-"`
}

// Tier returns the risk tier for this verdict's score
func (v *Verdict) Tier() Tier {
	return TierForScore(v.RiskScore)
}

// MonitorState is the single per-page analysis state: the fingerprint of the
// last email handed to the analyzer and whether a call is currently in
// flight. There is exactly one instance per running guard.
type MonitorState struct {
	mu              sync.Mutex
	lastFingerprint string
	inFlight        bool
}

// NewMonitorState creates an empty monitor state
func NewMonitorState() *MonitorState {
	return &MonitorState{}
}

// TryBegin atomically claims an analysis slot for the given fingerprint. It
// returns false when a call is already in flight or when the fingerprint
// matches the last one handed to the analyzer. On success the fingerprint is
// recorded immediately, before the network call starts, so a re-entrant
// trigger for the same email is dropped while the request is outstanding.
func (m *MonitorState) TryBegin(fingerprint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight || fingerprint == m.lastFingerprint {
		return false
	}
	m.lastFingerprint = fingerprint
	m.inFlight = true
	return true
}

// End releases the analysis slot. It must run on every exit path of an
// analysis attempt, success or failure, or the guard stays busy forever.
func (m *MonitorState) End() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}

// InFlight reports whether an analysis call is currently outstanding
func (m *MonitorState) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// LastFingerprint returns the fingerprint of the last analysis attempt
func (m *MonitorState) LastFingerprint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFingerprint
}
