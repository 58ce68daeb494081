package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService on top of an AccountStore.
type TransferServiceImpl struct {
	accounts ports.AccountStore
	log      zerolog.Logger
	now      func() time.Time
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(accounts ports.AccountStore, log zerolog.Logger) *TransferServiceImpl {
	return &TransferServiceImpl{
		accounts: accounts,
		log:      log,
		now:      time.Now,
	}
}

// Transfer moves req.Amount from sender to recipient as one atomic unit.
//
// Both accounts are acquired in lexicographic username order regardless of
// direction, so opposing transfers between the same pair cannot deadlock.
// Every failure is detected before the first entry is appended.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.TransferRecord, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Sender == req.Recipient {
		return nil, apperror.ErrSameAccount()
	}

	// Pre-check on snapshots; authoritative checks happen under the locks.
	if _, err := s.accounts.Get(ctx, req.Recipient); err != nil {
		return nil, s.mapLookupErr(err, true)
	}
	sender, err := s.accounts.Get(ctx, req.Sender)
	if err != nil {
		return nil, s.mapLookupErr(err, false)
	}
	if sender.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	first, second := req.Sender, req.Recipient
	if second < first {
		first, second = second, first
	}

	lockedFirst, err := s.accounts.Acquire(ctx, first)
	if err != nil {
		return nil, s.mapLookupErr(err, first == req.Recipient)
	}
	defer lockedFirst.Release()

	lockedSecond, err := s.accounts.Acquire(ctx, second)
	if err != nil {
		return nil, s.mapLookupErr(err, second == req.Recipient)
	}
	defer lockedSecond.Release()

	from, to := lockedFirst, lockedSecond
	if from.Username() != req.Sender {
		from, to = to, from
	}

	if from.Balance().LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	transferID := uuid.New()
	at := s.now().UTC()
	debit, credit := domain.NewTransferEntries(transferID, req.Sender, req.Recipient, req.Amount, at)

	from.Append(debit)
	to.Append(credit)

	record := &domain.TransferRecord{
		ID:               transferID,
		Sender:           req.Sender,
		Recipient:        req.Recipient,
		Amount:           req.Amount,
		SenderBalance:    from.Balance(),
		RecipientBalance: to.Balance(),
		CreatedAt:        at,
	}

	s.log.Info().
		Str("transfer_id", transferID.String()).
		Str("sender", req.Sender).
		Str("recipient", req.Recipient).
		Str("amount", req.Amount.StringFixed(domain.AmountScale)).
		Str("client_ip", req.ClientIP).
		Msg("transfer committed")

	return record, nil
}

func (s *TransferServiceImpl) mapLookupErr(err error, recipient bool) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		if recipient {
			return apperror.ErrRecipientNotFound()
		}
		return apperror.ErrNotFound("Account")
	}
	return apperror.InternalError(fmt.Errorf("load account: %w", err))
}
