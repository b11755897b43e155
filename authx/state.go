package authx

import (
	"sync"
)

// Status summarizes where a Client is in its authentication lifecycle. It is
// always derived from the underlying loading/authenticated flags and never
// tracked independently of them.
type Status string

const (
	StatusLoading         Status = "LOADING"
	StatusAuthenticated   Status = "AUTHENTICATED"
	StatusUnauthenticated Status = "UNAUTHENTICATED"
)

// Session is a snapshot of the authenticated identity established by the
// session bootstrap.
type Session struct {
	UserID   string                 `json:"userId"`
	TenantID string                 `json:"tenantId"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// State is the shared substrate both the session bootstrap and the token
// engine write to and the UI layer reads from. All access goes through its
// methods; it is safe for concurrent use.
type State struct {
	mu              sync.RWMutex
	isLoading       bool
	isAuthenticated bool
	err             error
	session         Session
}

// NewState returns a State in its initial LOADING condition.
func NewState() *State {
	return &State{
		isLoading: true,
	}
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.isLoading:
		return StatusLoading
	case s.isAuthenticated:
		return StatusAuthenticated
	default:
		return StatusUnauthenticated
	}
}

func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuthenticated
}

// Err returns the terminal bootstrap error, if any. It is only ever
// populated when redirect-on-unauthenticated is disabled.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Session returns a copy of the current identity snapshot. Mutating the
// returned value does not affect the State.
func (s *State) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

// UpdateMetadata shallow-merges the specified fields into the session
// metadata. It is permitted (if semantically pointless) while
// unauthenticated.
func (s *State) UpdateMetadata(partial map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Metadata == nil {
		s.session.Metadata = map[string]interface{}{}
	}
	for k, v := range partial {
		s.session.Metadata[k] = v
	}
}

func (s *State) setAuthenticated(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false
	s.isAuthenticated = true
	s.err = nil
	s.session = session
}

func (s *State) setUnauthenticated(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false
	s.isAuthenticated = false
	s.err = err
	s.session = Session{}
}

func (s *State) reset() {
	s.setUnauthenticated(nil)
}

func copySession(session Session) Session {
	if session.Metadata == nil {
		return session
	}
	metadata := make(map[string]interface{}, len(session.Metadata))
	for k, v := range session.Metadata {
		metadata[k] = v
	}
	session.Metadata = metadata
	return session
}
