package ledger

import (
	"context"
	"sync"
)

type inMemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewInMemory creates a concurrency-safe in-memory ledger for development and tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{balances: make(map[string]int64)}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, accountID string, opening int64) error {
	if opening < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[accountID]; !exists {
		l.balances[accountID] = opening
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, accountID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, exists := l.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Debit(_ context.Context, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	if balance < amount {
		return balance, ErrInsufficientFunds
	}
	balance -= amount
	l.balances[accountID] = balance
	return balance, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	balance += amount
	l.balances[accountID] = balance
	return balance, nil
}
