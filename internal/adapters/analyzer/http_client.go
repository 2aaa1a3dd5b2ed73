// Package analyzer implements the default Analysis Client: one POST to the
// companion scoring service, no retry, no backoff, no explicit deadline
// beyond what the transport provides. The service is optionally available;
// unreachability is an expected degraded mode, not an exceptional state.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/core"
)

// ErrUnavailable marks any transport failure or non-success status from the
// scoring service
var ErrUnavailable = errors.New("scoring service unavailable")

// HTTPClient calls the companion scoring endpoint. It implements
// core.Analyzer.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// analyzeRequest is the wire shape of a scoring request
type analyzeRequest struct {
	Text string `json:"text"`
}

// NewHTTPClient creates a client for the given /analyze endpoint
func NewHTTPClient(endpoint string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Analyze submits the text and returns the parsed verdict. All verdict
// fields are optional on the wire; absent ones keep their zero-value
// defaults (score 0, empty flag and action lists).
func (c *HTTPClient) Analyze(ctx context.Context, text string) (*core.Verdict, error) {
	payload, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var verdict core.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}

	verdict.AnalyzedAt = time.Now()
	verdict.Provider = "http"
	verdict.ProcessingID = uuid.NewString()

	c.logger.Debug("Scoring service responded",
		zap.Int("risk_score", verdict.RiskScore),
		zap.Int("flags", len(verdict.Flags)))

	return &verdict, nil
}
