package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInsufficientFunds occurs when the account balance cannot cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount rejects non-numeric, zero or negative amounts before any mutation.
	ErrInvalidAmount = errors.New("amount must be a positive whole number")

	// ErrAccountNotFound indicates no wallet exists for the account id.
	ErrAccountNotFound = errors.New("account not found")
)

// MaxAmountDigits bounds amounts to what fits the transfer payload.
const MaxAmountDigits = 10

// Ledger owns wallet balances. Debit and Credit are the only operations that
// change a balance after the account is opened.
type Ledger interface {
	// EnsureAccount opens the wallet for accountID with the given balance. It is
	// idempotent: an already opened wallet is left untouched.
	EnsureAccount(ctx context.Context, accountID string, opening int64) error
	Balance(ctx context.Context, accountID string) (int64, error)
	// Debit atomically checks and decrements the balance, returning the new balance.
	Debit(ctx context.Context, accountID string, amount int64) (int64, error)
	// Credit atomically increments the balance, returning the new balance.
	Credit(ctx context.Context, accountID string, amount int64) (int64, error)
}

// ParseAmount converts submitted text into a positive amount.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxAmountDigits {
		return 0, ErrInvalidAmount
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}
