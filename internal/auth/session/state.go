// Package session holds the identity of the user driving the current shell.
package session

import "sync"

// Identity is who is logged in. Token is the raw session token.
type Identity struct {
	UserID     string
	Department string
	Token      string
}

// State holds at most one Identity. The zero value is an empty, usable
// State. Construct one per interactive shell and pass it along; there is no
// package level session.
type State struct {
	mu sync.RWMutex
	id *Identity
}

func New() *State { return &State{} }

// Set replaces the current identity.
func (s *State) Set(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = &id
}

// Clear forgets the current identity and reports whether there was one.
func (s *State) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.id != nil
	s.id = nil
	return had
}

// Current returns a copy of the identity, if any.
func (s *State) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.id == nil {
		return Identity{}, false
	}
	return *s.id, true
}

func (s *State) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}
