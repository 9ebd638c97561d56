package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagaragarwal94/qr-crypto/internal/infra"
)

const uniqueViolation = "23505"

// Repository persists users. Create and Save must reject duplicate usernames
// and phone numbers with ErrDuplicateUsername / ErrDuplicatePhone.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	// Save updates the mutable fields: password hash and phone number.
	Save(ctx context.Context, user User) error
	// Delete removes a user. Missing users are ignored.
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user with its wallet already opened at InitialBalance,
// so a row never exists without its opening credits.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	createdAt := user.CreatedAt.UTC()
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, username, password_hash, otp_secret, phone_number, wallet, wallet_opened_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		userID, user.Username, string(user.PasswordHash), user.OTPSecret, user.Phone, InitialBalance, createdAt)
	return mapWriteError(err)
}

// Delete removes a user row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	_, err = r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}

const selectUser = `SELECT id, username, password_hash, otp_secret, phone_number, created_at FROM users `

// FindByUsername fetches a user by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUser+`WHERE username = $1`, username))
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	return scanUser(r.db.QueryRow(ctx, selectUser+`WHERE id = $1`, userID))
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUser+`WHERE phone_number = $1`, phone))
}

// Save stores the password hash and phone number of an existing user.
func (r *PostgresRepository) Save(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return ErrUserNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, phone_number = $3 WHERE id = $1`,
		userID, string(user.PasswordHash), user.Phone)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		hash      string
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Username, &hash, &user.OTPSecret, &user.Phone, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.PasswordHash = []byte(hash)
	user.CreatedAt = createdAt.UTC()
	return user, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case infra.UsersUsernameKey:
		return ErrDuplicateUsername
	case infra.UsersPhoneKey:
		return ErrDuplicatePhone
	default:
		return ErrDuplicate
	}
}
