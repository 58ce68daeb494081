package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"ledger-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AccountStore owns account records: credentials, balances and ledger entries.
// It guards each account individually and never serializes transfers itself.
type AccountStore interface {
	// Create inserts a new account with the starting balance.
	// Returns domain.ErrAccountExists if the username is taken.
	Create(ctx context.Context, username, credential string) (*domain.Account, error)
	// Verify checks the credential and returns the account's username.
	// Unknown usernames and wrong credentials both yield domain.ErrInvalidCredential.
	Verify(ctx context.Context, username, credential string) (string, error)
	// Get returns a snapshot that shares no state with the store.
	Get(ctx context.Context, username string) (*domain.Account, error)
	// Acquire blocks until the caller holds exclusive mutation rights over the account.
	// The caller must Release the returned handle.
	Acquire(ctx context.Context, username string) (LockedAccount, error)
	Count(ctx context.Context) int
}

// LockedAccount is exclusive access to one account, valid until Release.
type LockedAccount interface {
	Username() string
	Balance() decimal.Decimal
	// Append applies the entry to the balance and records it in the log.
	Append(entry domain.Transaction)
	Release()
}

// SessionManager maps opaque tokens to account identities.
type SessionManager interface {
	Issue(ctx context.Context, username string) (*domain.Session, error)
	// Resolve returns domain.ErrSessionNotFound for unknown, revoked or expired tokens.
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// RateLimitStore counts requests in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}
