package dto

import (
	"time"

	"ledger-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,username"`
	Password string `json:"password" binding:"required,min=3,max=128" sanitize:"-"`
}

// LoginRequest is the request body for login. The username is matched as
// sent; a name that could never register simply fails to authenticate.
type LoginRequest struct {
	Username string `json:"username" binding:"required" sanitize:"-"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// TransferRequest is the request body for a transfer. Amount accepts a JSON
// number or a decimal string; positivity and scale are checked by the engine.
// ToUser is looked up as sent, so a malformed name is an unknown recipient.
type TransferRequest struct {
	ToUser string          `json:"to_user" binding:"required" sanitize:"-"`
	Amount decimal.Decimal `json:"amount"`
}

// AccountResponse is returned on registration.
type AccountResponse struct {
	Username  string `json:"username"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt *int64 `json:"expires_at,omitempty"` // Unix timestamp, absent when sessions never expire
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Username string `json:"username"`
	Balance  string `json:"balance"`
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID           string `json:"id"`
	TransferID   string `json:"transfer_id"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	Counterparty string `json:"counterparty"`
	CreatedAt    string `json:"created_at"`
}

// TransferResponse is the response for a committed transfer.
type TransferResponse struct {
	ID        string `json:"id"`
	FromUser  string `json:"from_user"`
	ToUser    string `json:"to_user"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance"` // sender's balance after the transfer
	CreatedAt string `json:"created_at"`
}

// FormatAmount renders a ledger amount with its fixed scale.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NewAccountResponse maps an account snapshot.
func NewAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		Username:  acc.Username,
		Balance:   FormatAmount(acc.Balance),
		CreatedAt: formatTime(acc.CreatedAt),
	}
}

// NewLoginResponse maps an issued session.
func NewLoginResponse(s *domain.Session) LoginResponse {
	resp := LoginResponse{Token: s.Token}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt.Unix()
		resp.ExpiresAt = &exp
	}
	return resp
}

// NewTransactionResponses maps a ledger in order. The result is never nil.
func NewTransactionResponses(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionResponse{
			ID:           t.ID.String(),
			TransferID:   t.TransferID.String(),
			Type:         string(t.Kind),
			Amount:       FormatAmount(t.Amount),
			Counterparty: t.Counterparty,
			CreatedAt:    formatTime(t.CreatedAt),
		})
	}
	return out
}

// NewTransferResponse maps a committed transfer.
func NewTransferResponse(r *domain.TransferRecord) TransferResponse {
	return TransferResponse{
		ID:        r.ID.String(),
		FromUser:  r.Sender,
		ToUser:    r.Recipient,
		Amount:    FormatAmount(r.Amount),
		Balance:   FormatAmount(r.SenderBalance),
		CreatedAt: formatTime(r.CreatedAt),
	}
}
