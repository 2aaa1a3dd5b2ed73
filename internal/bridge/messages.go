// Package bridge carries the request/response protocol between the in-page
// detector and an external control surface. Two message types exist; every
// request receives exactly one response, and responses may be completed
// after the handler returns (deferred delivery).
package bridge

import (
	"encoding/json"

	"github.com/aman/webmail-guard/internal/core"
)

// Message types understood by the detector
const (
	TypeGetEmail   = "GET_EMAIL"
	TypeShowResult = "SHOW_RESULT"
)

// Request is one control-surface message. Result is only set for
// SHOW_RESULT.
type Request struct {
	ID     string        `json:"id,omitempty"`
	Type   string        `json:"type"`
	Result *core.Verdict `json:"result,omitempty"`
}

// Response is the single reply to a request. Data is only set on a
// successful GET_EMAIL; a failed lookup always carries a human-readable
// error, never `ok` with empty data.
type Response struct {
	OK    bool                `json:"ok"`
	Data  *core.EmailSnapshot `json:"data,omitempty"`
	Error string              `json:"error,omitempty"`
}

// PageInfo is the transport-level answer to "what page is the detector
// attached to". It is the analogue of the host's tab query, not a bridge
// message type.
type PageInfo struct {
	URL string `json:"url"`
}

// DecodeRequest parses a request off the wire
func DecodeRequest(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
