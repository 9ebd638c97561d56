package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// InitialBalance is credited to every wallet when its account is created.
const InitialBalance int64 = 100

var (
	// ErrDuplicate is the parent of every unique-constraint violation.
	ErrDuplicate = errors.New("already exists")
	// ErrDuplicateUsername reports a taken username.
	ErrDuplicateUsername = fmt.Errorf("username %w", ErrDuplicate)
	// ErrDuplicatePhone reports a phone number already bound to another account.
	ErrDuplicatePhone = fmt.Errorf("phone number %w", ErrDuplicate)
	// ErrUserNotFound is returned by lookups that match no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is the single authentication failure. It never
	// says which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid username, password or token")
)

// User is a registered account. The raw password is never kept; OTPSecret is
// assigned once by NewUser and never rotated. The wallet balance belongs to the
// ledger, keyed by ID.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	OTPSecret    string
	Phone        string
	CreatedAt    time.Time
}

// SecretGenerator issues a TOTP secret for an account name.
type SecretGenerator interface {
	Generate(account string) (string, error)
}

// NewUser builds a fully initialised account record: fresh id, bcrypt hash of
// password and a newly generated OTP secret.
func NewUser(username, password, phone string, secrets SecretGenerator, now time.Time) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	secret, err := secrets.Generate(username)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		OTPSecret:    secret,
		Phone:        phone,
		CreatedAt:    now.UTC(),
	}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}
