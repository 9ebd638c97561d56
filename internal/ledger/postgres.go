package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger keeps balances in the wallet column of the users table.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount sets the opening balance once; later calls are no-ops.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, accountID string, opening int64) error {
	if opening < 0 {
		return ErrInvalidAmount
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return ErrAccountNotFound
	}
	cmd, err := l.db.Exec(ctx, `UPDATE users SET wallet = $2, wallet_opened_at = now()
        WHERE id = $1 AND wallet_opened_at IS NULL`, id, opening)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrAccountNotFound
	}
	return nil
}

// Balance returns the current wallet balance.
func (l *PostgresLedger) Balance(ctx context.Context, accountID string) (int64, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	var balance int64
	if err := l.db.QueryRow(ctx, `SELECT wallet FROM users WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Debit locks the user row, checks the balance and decrements it in one transaction.
func (l *PostgresLedger) Debit(ctx context.Context, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return 0, ErrAccountNotFound
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT wallet FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	if balance < amount {
		return balance, ErrInsufficientFunds
	}

	if err := tx.QueryRow(ctx, `UPDATE users SET wallet = wallet - $2 WHERE id = $1 RETURNING wallet`, id, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("debit wallet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// Credit increments the balance with a single atomic update.
func (l *PostgresLedger) Credit(ctx context.Context, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	var balance int64
	err = l.db.QueryRow(ctx, `UPDATE users SET wallet = wallet + $2 WHERE id = $1 RETURNING wallet`, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("credit wallet: %w", err)
	}
	return balance, nil
}
