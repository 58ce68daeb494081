package service

import (
	"context"
	"errors"
	"fmt"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	accounts ports.AccountStore
	sessions ports.SessionManager
	log      zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(accounts ports.AccountStore, sessions ports.SessionManager, log zerolog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		accounts: accounts,
		sessions: sessions,
		log:      log,
	}
}

// Register opens a new account with the starting balance.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	acc, err := s.accounts.Create(ctx, username, password)
	if errors.Is(err, domain.ErrAccountExists) {
		return nil, apperror.ErrAlreadyExists()
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().Str("username", username).Msg("account registered")
	return acc, nil
}

// Login verifies the credential and issues a new session.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	owner, err := s.accounts.Verify(ctx, username, password)
	if errors.Is(err, domain.ErrInvalidCredential) {
		return nil, apperror.ErrInvalidCredential()
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify credential: %w", err))
	}

	session, err := s.sessions.Issue(ctx, owner)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue session: %w", err))
	}
	return session, nil
}

// Authenticate resolves a bearer token to the account it was issued for.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperror.ErrUnauthenticated()
	}

	username, err := s.sessions.Resolve(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return "", apperror.ErrUnauthenticated()
	}
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("resolve session: %w", err))
	}
	return username, nil
}

// Logout revokes the token. The session no longer resolves afterwards.
func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return apperror.InternalError(fmt.Errorf("revoke session: %w", err))
	}
	return nil
}
