package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/core"
)

type stubSource struct {
	snapshot *core.EmailSnapshot
	err      error
}

func (s *stubSource) Extract(ctx context.Context) (*core.EmailSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

type stubPresenter struct {
	mu        sync.Mutex
	presented []*core.Verdict
}

func (s *stubPresenter) Present(verdict *core.Verdict) {
	s.mu.Lock()
	s.presented = append(s.presented, verdict)
	s.mu.Unlock()
}

func collect(t *testing.T, d *Dispatcher, req *Request) []*Response {
	t.Helper()
	var responses []*Response
	d.Dispatch(context.Background(), req, func(resp *Response) {
		responses = append(responses, resp)
	})
	return responses
}

func TestDispatch_GetEmail(t *testing.T) {
	snapshot := core.NewEmailSnapshot("a@b.com", "subj", "a body long enough", 200)
	d := NewDispatcher(&stubSource{snapshot: snapshot}, &stubPresenter{}, zap.NewNop())

	responses := collect(t, d, &Request{Type: TypeGetEmail})

	require.Len(t, responses, 1)
	assert.True(t, responses[0].OK)
	require.NotNil(t, responses[0].Data)
	assert.Equal(t, "a@b.com", responses[0].Data.Sender)
	assert.Empty(t, responses[0].Error)
}

func TestDispatch_GetEmailNoneOpen(t *testing.T) {
	d := NewDispatcher(&stubSource{err: core.ErrNoEmail}, &stubPresenter{}, zap.NewNop())

	responses := collect(t, d, &Request{Type: TypeGetEmail})

	require.Len(t, responses, 1)
	// The failure shape is {ok:false, error}; never {ok:true} with nil data
	assert.False(t, responses[0].OK)
	assert.Nil(t, responses[0].Data)
	assert.NotEmpty(t, responses[0].Error)
}

func TestDispatch_ShowResult(t *testing.T) {
	presenter := &stubPresenter{}
	d := NewDispatcher(&stubSource{}, presenter, zap.NewNop())

	verdict := &core.Verdict{RiskScore: 75, ThreatType: "phishing"}
	responses := collect(t, d, &Request{Type: TypeShowResult, Result: verdict})

	require.Len(t, responses, 1)
	assert.True(t, responses[0].OK)
	require.Len(t, presenter.presented, 1)
	assert.Equal(t, 75, presenter.presented[0].RiskScore)
}

func TestDispatch_ShowResultWithoutPayload(t *testing.T) {
	presenter := &stubPresenter{}
	d := NewDispatcher(&stubSource{}, presenter, zap.NewNop())

	responses := collect(t, d, &Request{Type: TypeShowResult})

	require.Len(t, responses, 1)
	assert.False(t, responses[0].OK)
	assert.Empty(t, presenter.presented)
}

func TestDispatch_UnknownTypeStillAnswered(t *testing.T) {
	d := NewDispatcher(&stubSource{}, &stubPresenter{}, zap.NewNop())

	responses := collect(t, d, &Request{Type: "REFRESH_EVERYTHING"})

	// An unrecognized message must still produce exactly one response or
	// the caller hangs forever
	require.Len(t, responses, 1)
	assert.False(t, responses[0].OK)
	assert.Contains(t, responses[0].Error, "REFRESH_EVERYTHING")
}

func TestDispatch_AssignsRequestID(t *testing.T) {
	d := NewDispatcher(&stubSource{err: core.ErrNoEmail}, &stubPresenter{}, zap.NewNop())

	req := &Request{Type: TypeGetEmail}
	collect(t, d, req)

	assert.NotEmpty(t, req.ID)
}
