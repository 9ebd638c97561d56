package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names are matched by the identity repository to tell duplicate
// usernames apart from duplicate phone numbers.
const (
	UsersUsernameKey = "users_username_key"
	UsersPhoneKey    = "users_phone_number_key"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id               UUID PRIMARY KEY,
        username         VARCHAR(64) NOT NULL,
        password_hash    TEXT NOT NULL,
        otp_secret       CHAR(16) NOT NULL,
        phone_number     VARCHAR(11) NOT NULL,
        wallet           BIGINT NOT NULL DEFAULT 0,
        wallet_opened_at TIMESTAMPTZ,
        created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
        CONSTRAINT ` + UsersUsernameKey + ` UNIQUE (username),
        CONSTRAINT ` + UsersPhoneKey + ` UNIQUE (phone_number),
        CONSTRAINT users_wallet_non_negative CHECK (wallet >= 0)
    )`,
}

// EnsureSchema creates the tables the service relies on when they are absent.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
