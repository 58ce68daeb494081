package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind tells which side of a transfer an entry records.
type TransactionKind string

const (
	TransactionKindCredit TransactionKind = "credit"
	TransactionKindDebit  TransactionKind = "debit"
)

// Transaction is an immutable ledger entry for one side of a transfer.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	TransferID   uuid.UUID       `json:"transfer_id"`
	Kind         TransactionKind `json:"type"`
	Amount       decimal.Decimal `json:"amount"` // always positive
	Counterparty string          `json:"counterparty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SignedAmount is the entry's effect on its owner's balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == TransactionKindDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// NewTransferEntries builds the debit for the sender and the matching credit
// for the recipient. Both share the transfer id and timestamp.
func NewTransferEntries(transferID uuid.UUID, sender, recipient string, amount decimal.Decimal, at time.Time) (debit, credit Transaction) {
	debit = Transaction{
		ID:           uuid.New(),
		TransferID:   transferID,
		Kind:         TransactionKindDebit,
		Amount:       amount,
		Counterparty: recipient,
		CreatedAt:    at,
	}
	credit = Transaction{
		ID:           uuid.New(),
		TransferID:   transferID,
		Kind:         TransactionKindCredit,
		Amount:       amount,
		Counterparty: sender,
		CreatedAt:    at,
	}
	return debit, credit
}
