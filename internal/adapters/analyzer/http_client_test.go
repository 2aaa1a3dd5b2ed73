package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAnalyze_ParsesVerdict(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"risk_score": 85,
			"threat_type": "bank impersonation",
			"advice": "Do not click any links",
			"flags": [{"icon":"🏦","title":"Impersonates a bank","description":"asks for credentials","severity":"high"}],
			"actions": [{"icon":"🗑️","action":"Delete the email","description":"and report it"}]
		}`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, zap.NewNop())
	verdict, err := c.Analyze(context.Background(), "From: x\nSubject: y\n\nbody")
	require.NoError(t, err)

	assert.Equal(t, 85, verdict.RiskScore)
	assert.Equal(t, "bank impersonation", verdict.ThreatType)
	require.Len(t, verdict.Flags, 1)
	assert.Equal(t, "Impersonates a bank", verdict.Flags[0].Title)
	require.Len(t, verdict.Actions, 1)
	assert.Equal(t, "http", verdict.Provider)
	assert.NotEmpty(t, verdict.ProcessingID)
	assert.False(t, verdict.AnalyzedAt.IsZero())

	var req analyzeRequest
	require.NoError(t, json.Unmarshal(gotBody, &req))
	assert.Equal(t, "From: x\nSubject: y\n\nbody", req.Text)
}

func TestAnalyze_MissingFieldsDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, zap.NewNop())
	verdict, err := c.Analyze(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, 0, verdict.RiskScore)
	assert.Empty(t, verdict.ThreatType)
	assert.Empty(t, verdict.Flags)
	assert.Empty(t, verdict.Actions)
}

func TestAnalyze_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, zap.NewNop())
	verdict, err := c.Analyze(context.Background(), "text")

	assert.Nil(t, verdict)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnalyze_ServiceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	c := NewHTTPClient(server.URL, zap.NewNop())
	verdict, err := c.Analyze(context.Background(), "text")

	assert.Nil(t, verdict)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnalyze_MalformedVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, zap.NewNop())
	verdict, err := c.Analyze(context.Background(), "text")

	assert.Nil(t, verdict)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
