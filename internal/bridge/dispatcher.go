package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/core"
)

// Dispatcher routes bridge requests to the extractor and the presenter. It
// guarantees the one-response-per-request contract: whatever a handler does,
// the responder fires exactly once, and unknown message types are answered
// rather than dropped so the caller never hangs.
type Dispatcher struct {
	source    core.EmailSource
	presenter core.Presenter
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher over the detector's capabilities
func NewDispatcher(source core.EmailSource, presenter core.Presenter, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		source:    source,
		presenter: presenter,
		logger:    logger,
	}
}

// Dispatch handles one request. The respond callback may be retained and
// completed later; Dispatch itself never completes it more than once, and
// surplus completions from a confused handler are swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request, respond func(*Response)) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	once := &sync.Once{}
	reply := func(resp *Response) {
		once.Do(func() { respond(resp) })
	}

	d.logger.Debug("Bridge request",
		zap.String("request_id", req.ID),
		zap.String("type", req.Type))

	switch req.Type {
	case TypeGetEmail:
		d.handleGetEmail(ctx, reply)
	case TypeShowResult:
		d.handleShowResult(req, reply)
	default:
		// Unknown types still get a response or the caller hangs forever.
		d.logger.Debug("Ignoring unknown bridge message type", zap.String("type", req.Type))
		reply(&Response{OK: false, Error: "unsupported message type: " + req.Type})
	}
}

func (d *Dispatcher) handleGetEmail(ctx context.Context, reply func(*Response)) {
	snapshot, err := d.source.Extract(ctx)
	if err != nil {
		reply(&Response{OK: false, Error: "no open email found"})
		return
	}
	reply(&Response{OK: true, Data: snapshot})
}

func (d *Dispatcher) handleShowResult(req *Request, reply func(*Response)) {
	if req.Result == nil {
		reply(&Response{OK: false, Error: "missing result payload"})
		return
	}
	d.presenter.Present(req.Result)
	reply(&Response{OK: true})
}
