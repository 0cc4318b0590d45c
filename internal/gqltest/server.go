package gqltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// reply is one scripted HTTP response.
type reply struct {
	status int
	body   []byte
}

// Server is a scripted GraphQL endpoint backed by httptest.
type Server struct {
	ts *httptest.Server

	mu      sync.Mutex
	queue   []reply
	handler func(req *graphql.Request) *graphql.Response

	calls atomic.Int32
	ws    *wsHandler
}

// NewServer starts a scripted endpoint. It is closed via t.Cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{ws: newWSHandler()}
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", s.serveHTTP)
	mux.Handle("/graphql/ws", s.ws)
	s.ts = httptest.NewServer(mux)
	t.Cleanup(s.ts.Close)
	return s
}

// URL returns the HTTP GraphQL endpoint.
func (s *Server) URL() string { return s.ts.URL + "/graphql" }

// WSURL returns the WebSocket GraphQL endpoint.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/graphql/ws"
}

// Calls returns how many HTTP requests the server has received. Each batch
// request counts once.
func (s *Server) Calls() int { return int(s.calls.Load()) }

// Enqueue schedules an envelope for the next unscripted request.
func (s *Server) Enqueue(resp *graphql.Response) {
	body, _ := json.Marshal(resp)
	s.EnqueueRaw(http.StatusOK, body)
}

// EnqueueStatus schedules a bare non-2xx (or any) status reply.
func (s *Server) EnqueueStatus(status int) {
	s.EnqueueRaw(status, nil)
}

// EnqueueRaw schedules a verbatim reply.
func (s *Server) EnqueueRaw(status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, reply{status: status, body: body})
}

// HandleFunc installs a fallback responder used when the queue is empty.
func (s *Server) HandleFunc(fn func(req *graphql.Request) *graphql.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// SetScript configures the WebSocket side. See Script.
func (s *Server) SetScript(script Script) { s.ws.setScript(script) }

// StopReceived reports whether the WebSocket side saw a stop frame.
func (s *Server) StopReceived() bool { return s.ws.stopReceived.Load() }

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// A queued reply wins over everything, batch or not.
	s.mu.Lock()
	var queued *reply
	if len(s.queue) > 0 {
		queued = &s.queue[0]
		s.queue = s.queue[1:]
	}
	handler := s.handler
	s.mu.Unlock()

	if queued != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(queued.status)
		_, _ = w.Write(queued.body)
		return
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var reqs []*graphql.Request
		if err := json.Unmarshal(raw, &reqs); err != nil {
			http.Error(w, "bad batch", http.StatusBadRequest)
			return
		}
		envelopes := make([]*graphql.Response, len(reqs))
		for i, req := range reqs {
			envelopes[i] = s.respond(handler, req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envelopes)
		return
	}

	var req graphql.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.respond(handler, &req))
}

func (s *Server) respond(handler func(req *graphql.Request) *graphql.Response, req *graphql.Request) *graphql.Response {
	if handler != nil {
		if resp := handler(req); resp != nil {
			return resp
		}
	}
	return &graphql.Response{Data: json.RawMessage(`{}`)}
}
