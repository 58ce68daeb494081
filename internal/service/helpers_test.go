package service

import (
	"context"
	"io"
	"testing"

	"ledger-service/internal/adapter/storage/memory"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testStartingBalance = decimal.RequireFromString("1000.00")

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// ledger bundles the real in-memory core for scenario tests.
type ledger struct {
	accounts  *memory.AccountStore
	auth      *AuthServiceImpl
	transfers *TransferServiceImpl
	queries   *QueryServiceImpl
}

func newLedger(t *testing.T, usernames ...string) *ledger {
	t.Helper()
	accounts := memory.NewAccountStore(NewArgon2HashServiceWithParams(testHashParams), testStartingBalance, 8)
	sessions := memory.NewSessionStore(NewUUIDTokenGenerator(), 0)
	l := &ledger{
		accounts:  accounts,
		auth:      NewAuthService(accounts, sessions, newTestLogger()),
		transfers: NewTransferService(accounts, newTestLogger()),
		queries:   NewQueryService(accounts),
	}
	for _, u := range usernames {
		_, err := l.auth.Register(context.Background(), u, u+"-pw")
		require.NoError(t, err)
	}
	return l
}

func (l *ledger) balance(t *testing.T, username string) string {
	t.Helper()
	b, err := l.queries.GetBalance(context.Background(), username)
	require.NoError(t, err)
	return b.StringFixed(2)
}

// requireReplayInvariant checks balance == starting + credits - debits for each account.
func (l *ledger) requireReplayInvariant(t *testing.T, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		acc, err := l.accounts.Get(context.Background(), u)
		require.NoError(t, err)
		require.True(t, acc.Balance.Equal(acc.ReplayBalance(testStartingBalance)), "replay mismatch for %s", u)
		require.False(t, acc.Balance.IsNegative(), "negative balance for %s", u)
	}
}
