package core

import (
	"context"
	"errors"
)

// ErrNoEmail is returned by an EmailSource when the host page does not
// currently display a usable email
var ErrNoEmail = errors.New("no open email found")

// EmailSource extracts the currently displayed email from the host page
type EmailSource interface {
	// Extract returns a snapshot of the open email, or ErrNoEmail when the
	// page shows no usable email (list view, empty draft, unknown markup)
	Extract(ctx context.Context) (*EmailSnapshot, error)
}

// Analyzer submits email text to a remote scoring service
type Analyzer interface {
	// Analyze scores the given text and returns a verdict
	Analyze(ctx context.Context, text string) (*Verdict, error)
}

// Presenter surfaces a verdict to the user
type Presenter interface {
	// Present shows a verdict, replacing any notification already visible
	Present(verdict *Verdict)
}
