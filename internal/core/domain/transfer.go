package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRecord describes a committed transfer and the balances it left behind.
type TransferRecord struct {
	ID               uuid.UUID       `json:"id"`
	Sender           string          `json:"sender"`
	Recipient        string          `json:"recipient"`
	Amount           decimal.Decimal `json:"amount"`
	SenderBalance    decimal.Decimal `json:"sender_balance"`
	RecipientBalance decimal.Decimal `json:"recipient_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}
