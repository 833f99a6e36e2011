// Package matchserver exposes the rule engine over HTTP and WebSocket for
// interactive and long-running deployments: a client compiles a rule
// file into a session, pushes annotated documents to it, and streams
// matches back as they're produced.
package matchserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/SRI-AIC/valet-sub000/internal/manager"
)

// Session wraps one compiled rule set and the scan loop's cancellation
// state. A stop frame from the client cancels ctx, which the scan loop
// checks between token sequences — never mid-NFA-step.
type Session struct {
	ID      string
	Manager *manager.Manager

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Registry tracks live sessions, keyed by their uuid.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create compiles ruleFile into a fresh Manager and registers a new session
// for it.
func (r *Registry) Create(opts manager.LoadOptions, ruleFile string) (*Session, error) {
	m, err := manager.LoadFile(ruleFile, opts)
	if err != nil {
		return nil, fmt.Errorf("matchserver: compiling %s: %w", ruleFile, err)
	}
	s := &Session{ID: uuid.NewString(), Manager: m}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove discards a session, stopping any scan in progress.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Stop()
	}
}

// beginScan installs a fresh cancellable context for one document's scan
// loop, canceling any scan already in flight for this session first.
func (s *Session) beginScan() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	return ctx
}

// Stop cancels whichever scan loop is currently running for this session,
// invoked by a "stop" WebSocket text frame from the client.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
