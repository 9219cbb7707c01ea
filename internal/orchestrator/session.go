package orchestrator

import (
	"fmt"
	"sync"

	"github.com/mipractice/mipractice/internal/metrics"
	"github.com/mipractice/mipractice/internal/persona"
)

// State of a practice session. A session alternates between awaiting the
// persona's reply and awaiting analysis once a persona exists; ERROR is
// reachable from anywhere.
type State string

const (
	StateNoPersona            State = "NO_PERSONA"
	StatePersonaCreating      State = "PERSONA_CREATING"
	StatePersonaReady         State = "PERSONA_READY"
	StateAwaitingPersonaReply State = "AWAITING_PERSONA_REPLY"
	StateAwaitingAnalysis     State = "AWAITING_ANALYSIS"
	StateError                State = "ERROR"
)

var validTransitions = map[State][]State{
	StateNoPersona:            {StatePersonaCreating},
	StatePersonaCreating:      {StatePersonaReady},
	StatePersonaReady:         {StateAwaitingPersonaReply, StateAwaitingAnalysis},
	StateAwaitingPersonaReply: {StatePersonaReady, StateAwaitingAnalysis},
	StateAwaitingAnalysis:     {StatePersonaReady, StateAwaitingPersonaReply},
	StateError:                {},
}

// InvalidStateError reports an operation attempted in the wrong session state.
type InvalidStateError struct {
	From State
	To   State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid session transition %s -> %s", e.From, e.To)
}

// Session is the per-session orchestration state: the persona, its roleplay
// thread, and the monitor thread used for analysis. Sessions are
// single-writer; the mutex only guards against misbehaving callers, it does
// not serialize a work queue.
type Session struct {
	ID              string
	PersonaThreadID string
	MonitorThreadID string
	Persona         *persona.Persona

	mu    sync.Mutex
	state State
}

func newSession() *Session {
	return &Session{state: StateNoPersona}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves the session to the given state, rejecting moves the state
// machine does not allow. ERROR is always reachable.
func (s *Session) Transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if to == StateError {
		s.state = StateError
		return nil
	}
	for _, allowed := range validTransitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return &InvalidStateError{From: s.state, To: to}
}

// sessions is the registry of live sessions keyed by persona thread id.
// This is the only shared mutable map in the orchestrator; per-session state
// is never mutated by two callers at once.
type sessions struct {
	mu   sync.RWMutex
	byID map[string]*Session
}

func newSessions() *sessions {
	return &sessions{byID: make(map[string]*Session)}
}

func (r *sessions) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.PersonaThreadID] = s
	metrics.ActiveSessions.Set(float64(len(r.byID)))
}

func (r *sessions) get(personaThreadID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[personaThreadID]
	return s, ok
}

func (r *sessions) byPersonaID(personaID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.Persona != nil && s.Persona.ID == personaID {
			return s, true
		}
	}
	return nil, false
}
