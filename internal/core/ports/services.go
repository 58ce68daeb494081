package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"

	"ledger-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenGenerator produces unguessable session tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// --- Service Ports (Business Logic) ---

// AuthService defines registration and session business logic.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	Authenticate(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
}

// TransferService moves value between two accounts atomically.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*domain.TransferRecord, error)
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	Sender    string
	Recipient string
	Amount    decimal.Decimal
	ClientIP  string
}

// QueryService defines read-only balance and history lookups.
type QueryService interface {
	GetBalance(ctx context.Context, username string) (decimal.Decimal, error)
	GetTransactions(ctx context.Context, username string) ([]domain.Transaction, error)
	GetAccount(ctx context.Context, username string) (*domain.Account, error)
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
