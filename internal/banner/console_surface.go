package banner

import (
	"fmt"
	"io"
	"sync"
)

// ConsoleSurface renders banners as boxed text on a writer. It is the
// surface used by the daemon when no host rendering channel is attached, and
// by tests.
type ConsoleSurface struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSurface creates a surface writing to out
func NewConsoleSurface(out io.Writer) *ConsoleSurface {
	return &ConsoleSurface{out: out}
}

// Show renders the banner
func (s *ConsoleSurface) Show(b *Banner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.out, "\n%s %s\n", b.Scheme.Icon, b.Scheme.Title)
	fmt.Fprintf(s.out, "Risk: %d%%  Threat: %s\n", b.Score, b.ThreatLabel)
	if b.Advice != "" {
		fmt.Fprintf(s.out, "Advice: %s\n", b.Advice)
	}
	for _, f := range b.Flags {
		fmt.Fprintf(s.out, "  %s %s\n", f.Icon, f.Title)
	}
	return nil
}

// Remove is a no-op for a scrolling console; the banner simply ages out
func (s *ConsoleSurface) Remove(id string) error {
	return nil
}
