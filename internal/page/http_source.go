package page

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HTTPSource reads the host page from a debug endpoint exposed by a browser
// harness. A GET on the endpoint returns a JSON document {url, html}. The
// change feed is implemented by polling and comparing a cheap content hash.
type HTTPSource struct {
	endpoint   string
	httpClient *http.Client
	changes    chan struct{}
	logger     *zap.Logger

	mu       sync.Mutex
	lastHash uint64

	closeOnce sync.Once
	stopCh    chan struct{}
}

// NewHTTPSource creates a polling page source
func NewHTTPSource(endpoint string, pollInterval time.Duration, logger *zap.Logger) *HTTPSource {
	s := &HTTPSource{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		changes:    make(chan struct{}, 1),
		logger:     logger,
		stopCh:     make(chan struct{}),
	}

	go s.poll(pollInterval)

	return s
}

// Snapshot fetches the current page observation from the harness
func (s *HTTPSource) Snapshot(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page snapshot endpoint returned status %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode page snapshot: %w", err)
	}

	return &doc, nil
}

// Changes returns the change feed
func (s *HTTPSource) Changes() <-chan struct{} {
	return s.changes
}

// Close stops polling and closes the change feed
func (s *HTTPSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
	})
	return nil
}

// poll periodically fetches the page and emits a change hint when its
// content hash moves
func (s *HTTPSource) poll(interval time.Duration) {
	defer close(s.changes)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			doc, err := s.Snapshot(context.Background())
			if err != nil {
				s.logger.Debug("Page poll failed", zap.Error(err))
				continue
			}
			if s.contentChanged(doc) {
				select {
				case s.changes <- struct{}{}:
				default:
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *HTTPSource) contentChanged(doc *Document) bool {
	h := fnv.New64a()
	h.Write([]byte(doc.URL))
	h.Write(doc.HTML)
	sum := h.Sum64()

	s.mu.Lock()
	defer s.mu.Unlock()
	if sum == s.lastHash {
		return false
	}
	s.lastHash = sum
	return true
}
