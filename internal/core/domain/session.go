package domain

import (
	"errors"
	"time"
)

// ErrSessionNotFound indicates the token was never issued, was revoked or has expired.
var ErrSessionNotFound = errors.New("session not found")

// Session binds an opaque bearer token to an account.
type Session struct {
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"` // zero = never expires
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
