package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/HershyOrg/dtrader/eval"
	"github.com/HershyOrg/dtrader/logger"
	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/store"
	"github.com/HershyOrg/dtrader/value"
	"github.com/gorilla/websocket"
)

// Server exposes evaluation sessions over websocket. Every connection
// evaluates in its own child of the shared root scope, so assignments to
// names the root already holds are visible to all sessions while new names
// stay private. One mutex serializes all evaluation.
type Server struct {
	mu       sync.Mutex
	root     *scope.Scope
	eval     *eval.Evaluator
	log      *logger.Logger
	upgrader websocket.Upgrader
	sessions int

	// lifecycle guards server and stopped, apart from the evaluation lock.
	lifecycle sync.Mutex
	server    *http.Server
	stopped   bool
}

// New serves sessions rooted at ev's scope.
func New(ev *eval.Evaluator, log *logger.Logger) *Server {
	return &Server{
		root: ev.Scope(),
		eval: ev,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleSession)
	mux.HandleFunc("/charts", s.handleCharts)
	mux.HandleFunc("/symbols", s.handleSymbols)
	return mux
}

// Start blocks serving addr until Stop is called. Once Stop has run,
// Start returns nil without listening.
func (s *Server) Start(addr string) error {
	s.lifecycle.Lock()
	if s.stopped {
		s.lifecycle.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.server = srv
	s.lifecycle.Unlock()

	s.log.Info("session server listening", map[string]interface{}{"addr": addr})
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down and keeps any later Start from listening.
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	s.stopped = true
	srv := s.server
	s.lifecycle.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Evaluate runs src against env and converts the outcome into a Reply.
func (s *Server) Evaluate(env *scope.Scope, src string) Reply {
	s.mu.Lock()
	results, err := s.eval.WithScope(env).EvalSource(src)
	s.mu.Unlock()

	reply := Reply{Results: make([]Result, 0, len(results))}
	for _, r := range results {
		res := Result{Statement: r.Statement.String(), Value: value.Inspect(r.Value)}
		if r.Value != nil {
			res.Type = r.Value.Type().String()
		}
		reply.Results = append(reply.Results, res)
	}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.sessions++
	id := s.sessions
	s.mu.Unlock()

	env := scope.New(s.root)
	log := s.log.With("Session")
	log.Info("session opened", map[string]interface{}{"session": id, "remote": r.RemoteAddr})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("session read failed", map[string]interface{}{"session": id, "error": err.Error()})
			}
			break
		}
		var req Request
		var reply Reply
		if err := json.Unmarshal(message, &req); err != nil {
			reply = Reply{Results: []Result{}, Error: "invalid request: " + err.Error()}
		} else {
			reply = s.Evaluate(env, req.Source)
		}
		if reply.Error != "" {
			log.Warn("session evaluation failed", map[string]interface{}{"session": id, "error": reply.Error})
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("session write failed", map[string]interface{}{"session": id, "error": err.Error()})
			break
		}
	}
	log.Info("session closed", map[string]interface{}{"session": id})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	_, charts := store.Snapshot(s.root)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, ChartsResponse{Charts: charts, Count: len(charts)})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	symbols, _ := store.Snapshot(s.root)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, SymbolsResponse{Symbols: symbols, Count: len(symbols)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}
