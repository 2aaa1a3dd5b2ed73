// Package page provides access to the host webmail page: its current
// navigation address, its rendered markup, and a coarse structural change
// feed. The host DOM is an uncontrolled external system, so sources are
// best-effort and callers must tolerate stale or missing documents.
package page

import "context"

// Document is one observation of the host page
type Document struct {
	URL  string `json:"url"`
	HTML []byte `json:"html"`
}

// Source provides snapshots of the host page and a change feed. The feed is
// only a hint that the page may have changed; consumers re-read the snapshot
// and decide for themselves whether anything of interest happened.
type Source interface {
	// Snapshot returns the current page observation
	Snapshot(ctx context.Context) (*Document, error)

	// Changes returns the structural change feed. Events are coalesced;
	// a single event may stand for any number of underlying mutations.
	Changes() <-chan struct{}

	// Close releases the source and closes the change feed
	Close() error
}
