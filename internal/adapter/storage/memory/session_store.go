package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
)

const maxIssueAttempts = 3

var errTokenCollision = errors.New("session token collision")

// SessionStore implements ports.SessionManager with a single guarded map.
type SessionStore struct {
	tokens ports.TokenGenerator
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewSessionStore creates a session store. A ttl of zero disables expiry.
func NewSessionStore(tokens ports.TokenGenerator, ttl time.Duration) *SessionStore {
	return &SessionStore{
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*domain.Session),
	}
}

// Issue generates a token and binds it to username. Generation and insertion
// happen under the write lock, so two callers can never receive the same token.
func (s *SessionStore) Issue(ctx context.Context, username string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			return nil, err
		}
		if _, taken := s.sessions[token]; taken {
			continue
		}

		now := s.now().UTC()
		session := &domain.Session{
			Token:    token,
			Username: username,
			IssuedAt: now,
		}
		if s.ttl > 0 {
			session.ExpiresAt = now.Add(s.ttl)
		}
		s.sessions[token] = session

		cp := *session
		return &cp, nil
	}

	return nil, fmt.Errorf("issuing session after %d attempts: %w", maxIssueAttempts, errTokenCollision)
}

// Resolve looks the token up in O(1). Expired sessions are evicted on sight.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		s.evict(token, session)
		return "", domain.ErrSessionNotFound
	}
	return session.Username, nil
}

// Revoke removes the token. Revoking an unknown token is not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) evict(token string, seen *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Only drop the exact session we judged expired.
	if current, ok := s.sessions[token]; ok && current == seen {
		delete(s.sessions, token)
	}
}
