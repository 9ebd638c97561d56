package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sagaragarwal94/qr-crypto/internal/validation"
)

// TOTP is the slice of the one-time-password manager the service needs.
type TOTP interface {
	SecretGenerator
	EnrollmentURI(account, secret string) string
	Verify(secret, code string) bool
}

// WalletOpener opens a wallet with its opening balance. Calling it for an
// account that already has one must be a no-op.
type WalletOpener interface {
	EnsureAccount(ctx context.Context, accountID string, opening int64) error
}

// RegisterInput is the submitted registration form.
type RegisterInput struct {
	Username      string `form:"username" validate:"required,min=1,max=64"`
	Password      string `form:"password" validate:"required,max=72"`
	PasswordAgain string `form:"password_again" validate:"required,eqfield=Password"`
	Phone         string `form:"phone_number" validate:"required,len=10,digits"`
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Username string `form:"username" validate:"required,min=1,max=64"`
	Password string `form:"password" validate:"required"`
	Token    string `form:"token" validate:"required,len=6,digits"`
}

// Service manages registration and credential checks.
type Service struct {
	repo     Repository
	totp     TOTP
	wallets  WalletOpener
	validate *validation.Validator
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository, totp TOTP, wallets WalletOpener, validate *validation.Validator, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		totp:     totp,
		wallets:  wallets,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// Register validates the form, stores the new user and opens its wallet with
// InitialBalance. Returns validation.Errors for bad input and
// ErrDuplicateUsername / ErrDuplicatePhone for taken identifiers.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := s.validate.Struct(in); err != nil {
		return User{}, err
	}

	if _, err := s.repo.FindByUsername(ctx, in.Username); err == nil {
		return User{}, ErrDuplicateUsername
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	user, err := NewUser(in.Username, in.Password, in.Phone, s.totp, s.now())
	if err != nil {
		return User{}, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	if err := s.wallets.EnsureAccount(ctx, user.ID, InitialBalance); err != nil {
		// a user without its opening credits must not survive
		if derr := s.repo.Delete(context.WithoutCancel(ctx), user.ID); derr != nil {
			s.logger.Error("roll back registration", slog.String("user_id", user.ID), slog.Any("error", derr))
		}
		return User{}, fmt.Errorf("open wallet: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// dummyPasswordHash lets unknown usernames pay the same bcrypt cost as known ones.
func dummyPasswordHash() []byte {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// Authenticate checks username, password and the current TOTP code. Any
// mismatch yields ErrInvalidCredentials; both factors are always evaluated.
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validate.Struct(in); err != nil {
		return User{}, err
	}

	user, err := s.repo.FindByUsername(ctx, in.Username)
	known := err == nil
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash := user.PasswordHash
	if !known {
		hash = dummyPasswordHash()
	}
	passwordOK := bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) == nil
	tokenOK := known && s.totp.Verify(user.OTPSecret, in.Token)

	if !known || !passwordOK || !tokenOK {
		s.logger.Warn("login rejected", slog.String("username", in.Username))
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// EnrollmentURI returns the otpauth URI an authenticator app scans for user.
func (s *Service) EnrollmentURI(user User) string {
	return s.totp.EnrollmentURI(user.Username, user.OTPSecret)
}

// Lookup fetches a user by username.
func (s *Service) Lookup(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}
