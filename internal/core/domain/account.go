package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits a ledger amount may carry.
const AmountScale int32 = 2

// MaxAmountDigits bounds both the integer part of an amount and the
// exponent it may be written with. Comparing or rescaling a decimal costs
// time proportional to its exponent, so oversized values are refused first.
const MaxAmountDigits = 18

// maxAmountBits covers MaxAmountDigits integer digits plus as many
// fractional ones.
const maxAmountBits = 2 * MaxAmountDigits * 10 / 3

var (
	// ErrAccountExists indicates that the username is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound indicates that no account has the given username.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredential covers both an unknown username and a wrong password.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Account is one ledger account keyed by its username.
type Account struct {
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"` // argon2id encoded, never expose
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Clone returns a deep copy that shares no mutable state with a.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Transactions = make([]Transaction, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}

// Apply adds the entry to the balance and appends it to the log.
func (a *Account) Apply(entry Transaction) {
	a.Balance = a.Balance.Add(entry.SignedAmount())
	a.Transactions = append(a.Transactions, entry)
}

// ReplayBalance recomputes the balance from the starting amount and the log.
func (a *Account) ReplayBalance(starting decimal.Decimal) decimal.Decimal {
	total := starting
	for _, entry := range a.Transactions {
		total = total.Add(entry.SignedAmount())
	}
	return total
}

// ValidAmount reports whether amount may be moved by a transfer.
func ValidAmount(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	exp := int(amount.Exponent())
	if exp > MaxAmountDigits || exp < -MaxAmountDigits {
		return false
	}
	if amount.Coefficient().BitLen() > maxAmountBits {
		return false
	}
	if amount.NumDigits()+exp > MaxAmountDigits {
		return false
	}
	return amount.Equal(amount.Truncate(AmountScale))
}
