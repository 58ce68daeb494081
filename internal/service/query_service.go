package service

import (
	"context"
	"errors"
	"fmt"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/shopspring/decimal"
)

// QueryServiceImpl implements ports.QueryService as a thin read layer over the store.
type QueryServiceImpl struct {
	accounts ports.AccountStore
}

// NewQueryService creates a new QueryServiceImpl.
func NewQueryService(accounts ports.AccountStore) *QueryServiceImpl {
	return &QueryServiceImpl{accounts: accounts}
}

// GetAccount returns a consistent snapshot of the account.
func (s *QueryServiceImpl) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	acc, err := s.accounts.Get(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, apperror.ErrNotFound("Account")
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	return acc, nil
}

// GetBalance returns the account's committed balance.
func (s *QueryServiceImpl) GetBalance(ctx context.Context, username string) (decimal.Decimal, error) {
	acc, err := s.GetAccount(ctx, username)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

// GetTransactions returns the full log, oldest first.
func (s *QueryServiceImpl) GetTransactions(ctx context.Context, username string) ([]domain.Transaction, error) {
	acc, err := s.GetAccount(ctx, username)
	if err != nil {
		return nil, err
	}
	return acc.Transactions, nil
}
