package services

import (
	"flash-chat/errors"
	"sync"
)

// Session holds the signed-in identity of a client process.
// The feed never reads it; callers pass the identity to Send explicitly.
type Session struct {
	mu    sync.RWMutex
	email string
	token Token
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) SignIn(email string, token Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	s.token = token
}

func (s *Session) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.email == "" {
		return errors.ErrNotSignedIn
	}
	s.email = ""
	s.token = ""
	return nil
}

// CurrentUser returns the signed-in email.
func (s *Session) CurrentUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email, s.email != ""
}

func (s *Session) Token() (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}
