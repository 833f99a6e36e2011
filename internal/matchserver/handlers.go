package matchserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/SRI-AIC/valet-sub000/internal/manager"
	"github.com/SRI-AIC/valet-sub000/internal/match"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

// Server wires the session registry to an HTTP mux.
type Server struct {
	registry *Registry
	opts     manager.LoadOptions
	upgrader websocket.Upgrader

	mu      sync.Mutex
	streams map[string]*websocket.Conn
}

// NewServer builds a Server whose sessions compile rule files with opts.
func NewServer(opts manager.LoadOptions) *Server {
	return &Server{
		registry: NewRegistry(),
		opts:     opts,
		streams:  make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the chi mux: POST /sessions, GET /sessions/{id}/stream,
// POST /sessions/{id}/documents.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", s.handleCreateSession)
	r.Get("/sessions/{id}/stream", s.handleStream)
	r.Post("/sessions/{id}/documents", s.handleDocument)
	return r
}

type createSessionRequest struct {
	RuleFile string `json:"rule_file"`
}

type createSessionResponse struct {
	ID    string   `json:"id"`
	Rules []string `json:"rules"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := s.registry.Create(s.opts, req.RuleFile)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	names := sess.Manager.Names()
	rules := make([]string, len(names))
	for i, n := range names {
		rules[i] = n.Name
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: sess.ID, Rules: rules})
}

// handleStream upgrades the connection and registers it as the session's
// push target; a "stop" text frame cancels whatever scan is in flight.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.streams[id] = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.streams[id] == conn {
			delete(s.streams, id)
		}
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.TextMessage && strings.TrimSpace(string(data)) == "stop" {
			sess.Stop()
		}
	}
}

type matchEvent struct {
	SequenceID string `json:"sequence_id"`
	Rule       string `json:"rule"`
	Begin      int    `json:"begin"`
	End        int    `json:"end"`
	Text       string `json:"text"`
}

// handleDocument decodes a pushed document and scans it against every
// extractor in the session's manager, streaming each match over the
// session's open WebSocket as it is produced. It cooperatively checks the
// session's context between token sequences, never mid-NFA-step.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := tseq.DecodeDocument(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	conn := s.streams[id]
	s.mu.Unlock()

	ctx := sess.beginScan()
	names := sess.Manager.Names()

	go func() {
		for _, seq := range doc.Sequences {
			select {
			case <-ctx.Done():
				return
			default:
			}
			for _, n := range names {
				if n.Kind == manager.KindFrame {
					continue // frames are projections of other rules, not a standalone scan target here
				}
				ms, err := sess.Manager.Scan(n.Name, seq)
				if err != nil {
					continue
				}
				for _, m := range ms {
					s.emit(conn, seq, n.Name, m)
				}
			}
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) emit(conn *websocket.Conn, seq *tseq.InMemory, rule string, m match.Match) {
	if conn == nil {
		return
	}
	ev := matchEvent{SequenceID: seq.ID, Rule: rule, Begin: m.Begin(), End: m.End(), Text: m.MatchingText()}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conn.WriteMessage(websocket.TextMessage, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
