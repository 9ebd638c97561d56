package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestInMemoryLedger_EnsureAccountIsIdempotent(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.EnsureAccount(ctx, "alice", 100); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	if _, err := l.Debit(ctx, "alice", 30); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := l.EnsureAccount(ctx, "alice", 100); err != nil {
		t.Fatalf("ensure account again: %v", err)
	}

	balance, err := l.Balance(ctx, "alice")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 70 {
		t.Fatalf("re-opening must not reset the wallet, got %d", balance)
	}
}

func TestInMemoryLedger_DebitRejectsOverdraft(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "alice", 100)

	if _, err := l.Debit(ctx, "alice", 101); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	balance, _ := l.Balance(ctx, "alice")
	if balance != 100 {
		t.Fatalf("rejected debit must leave balance unchanged, got %d", balance)
	}

	balance, err := l.Debit(ctx, "alice", 100)
	if err != nil {
		t.Fatalf("debit full balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}
}

func TestInMemoryLedger_RejectsNonPositiveAmounts(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "alice", 100)

	for _, amount := range []int64{0, -5} {
		if _, err := l.Debit(ctx, "alice", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("debit %d: expected invalid amount, got %v", amount, err)
		}
		if _, err := l.Credit(ctx, "alice", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("credit %d: expected invalid amount, got %v", amount, err)
		}
	}
	if balance, _ := l.Balance(ctx, "alice"); balance != 100 {
		t.Fatalf("expected untouched balance, got %d", balance)
	}
}

func TestInMemoryLedger_UnknownAccount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	if _, err := l.Balance(ctx, "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := l.Credit(ctx, "ghost", 1); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInMemoryLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "alice", 100)

	const workers = 10
	var succeeded int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(ctx, "alice", 30)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errors.Is(err, ErrInsufficientFunds):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Fatalf("expected exactly 3 debits of 30 from 100, got %d", succeeded)
	}
	if balance, _ := l.Balance(ctx, "alice"); balance != 10 {
		t.Fatalf("expected balance 10, got %d", balance)
	}
}

func TestInMemoryLedger_DebitCreditConservesTotal(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "alice", 100)
	l.EnsureAccount(ctx, "bob", 100)

	if _, err := l.Debit(ctx, "alice", 30); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := l.Credit(ctx, "bob", 30); err != nil {
		t.Fatalf("credit: %v", err)
	}
	a, _ := l.Balance(ctx, "alice")
	b, _ := l.Balance(ctx, "bob")
	if a != 70 || b != 130 || a+b != 200 {
		t.Fatalf("unexpected balances alice=%d bob=%d", a, b)
	}
}

func TestParseAmount(t *testing.T) {
	valid := map[string]int64{"30": 30, " 7 ": 7, "9999999999": 9_999_999_999, "007": 7}
	for raw, want := range valid {
		got, err := ParseAmount(raw)
		if err != nil || got != want {
			t.Fatalf("ParseAmount(%q) = %d, %v; want %d", raw, got, err, want)
		}
	}
	for _, raw := range []string{"", "0", "-5", "+5", "1.5", "abc", "12345678901", "1e3"} {
		if _, err := ParseAmount(raw); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q): expected ErrInvalidAmount, got %v", raw, err)
		}
	}
}
