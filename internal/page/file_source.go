package page

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSource reads the host page from a rendered-page dump on disk, as
// written by a browser harness: <path> holds the markup and <path>.url the
// current navigation address. Filesystem notifications on the dump double as
// the structural change feed.
type FileSource struct {
	path    string
	urlPath string
	watcher *fsnotify.Watcher
	changes chan struct{}
	logger  *zap.Logger

	closeOnce sync.Once
	stopCh    chan struct{}
}

// NewFileSource creates a file-backed page source watching the dump for changes
func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create page watcher: %w", err)
	}

	// Watch the parent directory rather than the file: harnesses typically replace
	// the dump atomically via rename, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch page directory: %w", err)
	}

	s := &FileSource{
		path:    path,
		urlPath: path + ".url",
		watcher: watcher,
		changes: make(chan struct{}, 1),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	go s.forwardEvents()

	return s, nil
}

// Snapshot reads the current page dump
func (s *FileSource) Snapshot(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	html, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dump: %w", err)
	}

	// The URL sidecar is optional; a missing one only disables the
	// navigation trigger.
	url := ""
	if raw, err := os.ReadFile(s.urlPath); err == nil {
		url = strings.TrimSpace(string(raw))
	}

	return &Document{URL: url, HTML: html}, nil
}

// Changes returns the change feed
func (s *FileSource) Changes() <-chan struct{} {
	return s.changes
}

// Close stops the watcher and closes the change feed
func (s *FileSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopCh)
		err = s.watcher.Close()
	})
	return err
}

// forwardEvents coalesces filesystem events on the dump into change hints
func (s *FileSource) forwardEvents() {
	defer close(s.changes)

	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != s.path && ev.Name != s.urlPath {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			select {
			case s.changes <- struct{}{}:
			default:
				// A change hint is already pending; coalesce.
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Page watcher error", zap.Error(err))
		case <-s.stopCh:
			return
		}
	}
}
