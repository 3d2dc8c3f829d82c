// Package api exposes the query system over HTTP: synchronous and
// asynchronous query submission, result lookup and execution-log streaming
// over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bizpulse/bizpulse"
	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/logging"
)

// streamPollInterval is how often a streaming connection checks the store
// for new execution-log entries.
const streamPollInterval = 500 * time.Millisecond

// QueryRequest is the submission payload. Async submissions return the
// query ID immediately; the result is fetched or streamed later.
type QueryRequest struct {
	Query string `json:"query"`
	Async bool   `json:"async,omitempty"`
}

// QueryStatus is the lifecycle of a submitted query as seen by the API.
type QueryStatus struct {
	ID      string           `json:"id"`
	Running bool             `json:"running"`
	Result  *bizpulse.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// StreamMessage is one WebSocket frame: either a batch of new log entries
// or the terminal frame carrying the result.
type StreamMessage struct {
	Entries  []core.TraceEntry `json:"entries,omitempty"`
	Complete bool              `json:"complete,omitempty"`
	Result   *bizpulse.Result  `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Server routes HTTP traffic to one System instance.
type Server struct {
	Router *mux.Router
	Addr   string

	system *bizpulse.System
	logger logging.Logger

	mu      sync.Mutex
	queries map[string]*QueryStatus

	upgrader websocket.Upgrader
}

// NewServer creates the API server and registers its routes.
func NewServer(addr string, system *bizpulse.System, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &Server{
		Router:  mux.NewRouter(),
		Addr:    addr,
		system:  system,
		logger:  logger,
		queries: make(map[string]*QueryStatus),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.Router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/queries", s.createQueryHandler).Methods(http.MethodPost)
	api.HandleFunc("/queries/{id}", s.getQueryHandler).Methods(http.MethodGet)
	api.HandleFunc("/queries/{id}/stream", s.streamQueryHandler)
	api.HandleFunc("/tools/search", s.toolSearchHandler).Methods(http.MethodPost)
	api.HandleFunc("/tools/sentiment", s.toolSentimentHandler).Methods(http.MethodPost)
	api.HandleFunc("/tools/complete", s.toolCompleteHandler).Methods(http.MethodPost)
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.Addr)
	return http.ListenAndServe(s.Addr, s.Router)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// createQueryHandler runs a query. Invalid payloads are rejected with 400
// before any agent is dispatched; downstream failures still produce a 200
// with success=false so callers always get the execution log.
func (s *Server) createQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query must not be empty", http.StatusBadRequest)
		return
	}

	if req.Async {
		id := core.NewID()
		s.setStatus(&QueryStatus{ID: id, Running: true})
		go s.runAsync(id, req.Query)
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
		return
	}

	result, err := s.system.ProcessQuery(r.Context(), req.Query)
	if err != nil {
		http.Error(w, "query execution failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.setStatus(&QueryStatus{ID: result.QueryID, Result: result})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) runAsync(id, query string) {
	result, err := s.system.ProcessQuery(context.Background(), query)
	if err != nil {
		s.logger.Error("async query failed", "id", id, "error", err.Error())
		s.setStatus(&QueryStatus{ID: id, Error: err.Error()})
		return
	}
	s.setStatus(&QueryStatus{ID: id, Result: result})
}

func (s *Server) getQueryHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status, ok := s.getStatus(id)
	if !ok {
		http.Error(w, "query not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// streamQueryHandler upgrades to WebSocket and polls the store until the
// query finishes, then sends the execution log and the result in one
// terminal frame.
func (s *Server) streamQueryHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		status, ok := s.getStatus(id)
		if !ok {
			conn.WriteJSON(StreamMessage{Error: "query not found"})
			return
		}

		if status.Result != nil {
			conn.WriteJSON(StreamMessage{
				Entries:  status.Result.ExecutionLog,
				Complete: true,
				Result:   status.Result,
			})
			return
		}
		if !status.Running {
			// Finished without a result, so the query itself errored.
			msg := status.Error
			if msg == "" {
				msg = "query failed"
			}
			conn.WriteJSON(StreamMessage{Complete: true, Error: msg})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) setStatus(q *QueryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries[q.ID] = q
}

func (s *Server) getStatus(id string) (*QueryStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[id]
	return q, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
