package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/page"
)

// Server exposes the bridge over loopback HTTP so a separate control-surface
// process can reach the detector. POST /bridge carries the two message
// types; GET /page answers the tab-query analogue.
type Server struct {
	dispatcher *Dispatcher
	source     page.Source
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a bridge server listening on addr
func NewServer(dispatcher *Dispatcher, source page.Source, logger *zap.Logger, addr string) *Server {
	s := &Server{
		dispatcher: dispatcher,
		source:     source,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /bridge", s.handleBridge)
	mux.HandleFunc("GET /page", s.handlePage)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

// Start begins serving in the background
func (s *Server) Start() error {
	go func() {
		s.logger.Info("Bridge listening", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Bridge server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// handleBridge decodes one request and blocks until its (possibly deferred)
// response is completed, keeping the channel open as the protocol requires
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{OK: false, Error: fmt.Sprintf("malformed request: %v", err)})
		return
	}

	done := make(chan *Response, 1)
	s.dispatcher.Dispatch(r.Context(), &req, func(resp *Response) {
		done <- resp
	})

	select {
	case resp := <-done:
		writeJSON(w, http.StatusOK, resp)
	case <-r.Context().Done():
		// Caller went away; the response has nowhere to go.
	}
}

// handlePage reports the page the detector is attached to
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	doc, err := s.source.Snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, &Response{OK: false, Error: "page unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, &PageInfo{URL: doc.URL})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
