package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/internal/core/ports/mocks"
	"ledger-service/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"
)

func transferReq(from, to, amount string) ports.TransferRequest {
	return ports.TransferRequest{
		Sender:    from,
		Recipient: to,
		Amount:    decimal.RequireFromString(amount),
	}
}

func TestTransferService_AliceBobScenario(t *testing.T) {
	l := newLedger(t, "alice", "bob")
	ctx := context.Background()

	assert.Equal(t, "1000.00", l.balance(t, "alice"))
	assert.Equal(t, "1000.00", l.balance(t, "bob"))

	record, err := l.transfers.Transfer(ctx, transferReq("alice", "bob", "200"))
	require.NoError(t, err)
	assert.Equal(t, "800.00", record.SenderBalance.StringFixed(2))
	assert.Equal(t, "1200.00", record.RecipientBalance.StringFixed(2))

	assert.Equal(t, "800.00", l.balance(t, "alice"))
	assert.Equal(t, "1200.00", l.balance(t, "bob"))

	aliceTxs, err := l.queries.GetTransactions(ctx, "alice")
	require.NoError(t, err)
	bobTxs, err := l.queries.GetTransactions(ctx, "bob")
	require.NoError(t, err)

	require.Len(t, aliceTxs, 1)
	require.Len(t, bobTxs, 1)
	assert.Equal(t, domain.TransactionKindDebit, aliceTxs[0].Kind)
	assert.Equal(t, "200", aliceTxs[0].Amount.String())
	assert.Equal(t, "bob", aliceTxs[0].Counterparty)
	assert.Equal(t, domain.TransactionKindCredit, bobTxs[0].Kind)
	assert.Equal(t, "200", bobTxs[0].Amount.String())
	assert.Equal(t, "alice", bobTxs[0].Counterparty)
	assert.Equal(t, record.ID, aliceTxs[0].TransferID)
	assert.Equal(t, record.ID, bobTxs[0].TransferID)

	l.requireReplayInvariant(t, "alice", "bob")
}

func TestTransferService_InsufficientBalanceLeavesBalancesUnchanged(t *testing.T) {
	l := newLedger(t, "alice", "bob")

	_, err := l.transfers.Transfer(context.Background(), transferReq("alice", "bob", "10000"))
	assert.ErrorIs(t, err, apperror.ErrInsufficientBalance())

	assert.Equal(t, "1000.00", l.balance(t, "alice"))
	assert.Equal(t, "1000.00", l.balance(t, "bob"))

	txs, err := l.queries.GetTransactions(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestTransferService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     ports.TransferRequest
		wantErr error
	}{
		{"zero amount", transferReq("alice", "bob", "0"), apperror.ErrInvalidAmount()},
		{"negative amount", transferReq("alice", "bob", "-1"), apperror.ErrInvalidAmount()},
		{"sub-cent amount", transferReq("alice", "bob", "0.001"), apperror.ErrInvalidAmount()},
		{"huge exponent", transferReq("alice", "bob", "1e30000000"), apperror.ErrInvalidAmount()},
		{"huge negative exponent", transferReq("alice", "bob", "1e-30000000"), apperror.ErrInvalidAmount()},
		{"nineteen integer digits", transferReq("alice", "bob", "1000000000000000000"), apperror.ErrInvalidAmount()},
		{"self transfer", transferReq("alice", "alice", "1"), apperror.ErrSameAccount()},
		{"unknown recipient", transferReq("alice", "nobody", "1"), apperror.ErrRecipientNotFound()},
		{"unknown sender", transferReq("ghost", "bob", "1"), apperror.ErrNotFound("Account")},
		{"one cent over", transferReq("alice", "bob", "1000.01"), apperror.ErrInsufficientBalance()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, "alice", "bob")

			_, err := l.transfers.Transfer(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, "1000.00", l.balance(t, "alice"))
			assert.Equal(t, "1000.00", l.balance(t, "bob"))
		})
	}
}

func TestTransferService_LogsClientIP(t *testing.T) {
	l := newLedger(t, "alice", "bob")
	var buf bytes.Buffer
	transfers := NewTransferService(l.accounts, zerolog.New(&buf))

	req := transferReq("alice", "bob", "5")
	req.ClientIP = "203.0.113.7"
	_, err := transfers.Transfer(context.Background(), req)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "transfer committed", entry["message"])
	assert.Equal(t, "203.0.113.7", entry["client_ip"])
}

func TestTransferService_EntireBalance(t *testing.T) {
	l := newLedger(t, "alice", "bob")

	_, err := l.transfers.Transfer(context.Background(), transferReq("alice", "bob", "1000.00"))
	require.NoError(t, err)

	assert.Equal(t, "0.00", l.balance(t, "alice"))
	assert.Equal(t, "2000.00", l.balance(t, "bob"))
}

func TestTransferService_Conservation(t *testing.T) {
	l := newLedger(t, "alice", "bob", "carol")
	ctx := context.Background()

	moves := []ports.TransferRequest{
		transferReq("alice", "bob", "12.34"),
		transferReq("bob", "carol", "500"),
		transferReq("carol", "alice", "0.01"),
		transferReq("bob", "alice", "99.99"),
	}
	for _, m := range moves {
		before := sum(t, l, m.Sender, m.Recipient)
		_, err := l.transfers.Transfer(ctx, m)
		require.NoError(t, err)
		assert.True(t, before.Equal(sum(t, l, m.Sender, m.Recipient)))
	}

	assert.Equal(t, "3000.00", sum(t, l, "alice", "bob", "carol").StringFixed(2))
	l.requireReplayInvariant(t, "alice", "bob", "carol")
}

func sum(t *testing.T, l *ledger, usernames ...string) decimal.Decimal {
	t.Helper()
	total := decimal.Zero
	for _, u := range usernames {
		b, err := l.queries.GetBalance(context.Background(), u)
		require.NoError(t, err)
		total = total.Add(b)
	}
	return total
}

func TestTransferService_ConcurrentOpposingTransfers(t *testing.T) {
	l := newLedger(t, "alice", "bob")
	ctx := context.Background()

	const perDirection = 200
	var g errgroup.Group
	for i := 0; i < perDirection; i++ {
		g.Go(func() error {
			_, err := l.transfers.Transfer(ctx, transferReq("alice", "bob", "1.50"))
			return err
		})
		g.Go(func() error {
			_, err := l.transfers.Transfer(ctx, transferReq("bob", "alice", "1.00"))
			return err
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("opposing transfers did not complete; possible deadlock")
	}

	// Sequential equivalent: alice -200*1.50 +200*1.00.
	assert.Equal(t, "900.00", l.balance(t, "alice"))
	assert.Equal(t, "1100.00", l.balance(t, "bob"))
	l.requireReplayInvariant(t, "alice", "bob")

	txs, err := l.queries.GetTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, txs, 2*perDirection)
}

func TestTransferService_ConcurrentOverdrawNeverNegative(t *testing.T) {
	l := newLedger(t, "alice", "bob", "carol")
	ctx := context.Background()

	// 30 attempts of 100 from a 1000 balance: exactly 10 may succeed.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		recipient := "bob"
		if i%2 == 0 {
			recipient = "carol"
		}
		go func() {
			defer wg.Done()
			_, err := l.transfers.Transfer(ctx, transferReq("alice", recipient, "100"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, apperror.ErrInsufficientBalance())
			rejected++
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 20, rejected)
	assert.Equal(t, "0.00", l.balance(t, "alice"))
	assert.Equal(t, "3000.00", sum(t, l, "alice", "bob", "carol").StringFixed(2))
	l.requireReplayInvariant(t, "alice", "bob", "carol")
}

func TestTransferService_RingOfAccounts(t *testing.T) {
	names := make([]string, 6)
	for i := range names {
		names[i] = fmt.Sprintf("user%02d", i)
	}
	l := newLedger(t, names...)
	ctx := context.Background()

	var g errgroup.Group
	for round := 0; round < 50; round++ {
		for i := range names {
			from, to := names[i], names[(i+1)%len(names)]
			g.Go(func() error {
				_, err := l.transfers.Transfer(ctx, transferReq(from, to, "3.33"))
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	for _, n := range names {
		assert.Equal(t, "1000.00", l.balance(t, n))
	}
	l.requireReplayInvariant(t, names...)
}

func TestTransferService_AcquiresInLexicographicOrder(t *testing.T) {
	for _, dir := range []struct{ from, to string }{{"alice", "bob"}, {"bob", "alice"}} {
		t.Run(dir.from+"->"+dir.to, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			accounts := mocks.NewMockAccountStore(ctrl)
			lockedAlice := mocks.NewMockLockedAccount(ctrl)
			lockedBob := mocks.NewMockLockedAccount(ctrl)
			svc := NewTransferService(accounts, newTestLogger())
			ctx := context.Background()

			funded := &domain.Account{Balance: testStartingBalance}
			accounts.EXPECT().Get(ctx, gomock.Any()).Return(funded, nil).Times(2)

			lockedAlice.EXPECT().Username().Return("alice").AnyTimes()
			lockedBob.EXPECT().Username().Return("bob").AnyTimes()
			lockedAlice.EXPECT().Balance().Return(testStartingBalance).AnyTimes()
			lockedBob.EXPECT().Balance().Return(testStartingBalance).AnyTimes()
			lockedAlice.EXPECT().Append(gomock.Any())
			lockedBob.EXPECT().Append(gomock.Any())

			gomock.InOrder(
				accounts.EXPECT().Acquire(ctx, "alice").Return(lockedAlice, nil),
				accounts.EXPECT().Acquire(ctx, "bob").Return(lockedBob, nil),
				lockedBob.EXPECT().Release(),
				lockedAlice.EXPECT().Release(),
			)

			_, err := svc.Transfer(ctx, transferReq(dir.from, dir.to, "10"))
			require.NoError(t, err)
		})
	}
}

func TestTransferService_StalePreCheckIsRechecked(t *testing.T) {
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAccountStore(ctrl)
	lockedAlice := mocks.NewMockLockedAccount(ctrl)
	lockedBob := mocks.NewMockLockedAccount(ctrl)
	svc := NewTransferService(accounts, newTestLogger())
	ctx := context.Background()

	accounts.EXPECT().Get(ctx, "bob").Return(&domain.Account{Username: "bob"}, nil)
	accounts.EXPECT().Get(ctx, "alice").Return(&domain.Account{Username: "alice", Balance: testStartingBalance}, nil)
	accounts.EXPECT().Acquire(ctx, "alice").Return(lockedAlice, nil)
	accounts.EXPECT().Acquire(ctx, "bob").Return(lockedBob, nil)

	// Another transfer drained alice between the snapshot and the lock.
	lockedAlice.EXPECT().Username().Return("alice").AnyTimes()
	lockedAlice.EXPECT().Balance().Return(decimal.RequireFromString("5.00"))
	lockedAlice.EXPECT().Release()
	lockedBob.EXPECT().Release()

	_, err := svc.Transfer(ctx, transferReq("alice", "bob", "10"))
	assert.ErrorIs(t, err, apperror.ErrInsufficientBalance())
}
