package otp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// SecretBytes is the amount of entropy in a generated secret (80 bits).
	SecretBytes = 10
	// SecretLength is the base32 length of a generated secret.
	SecretLength = 16

	period = 30
)

// ErrEmptyAccount is returned when a secret is requested without an account name.
var ErrEmptyAccount = errors.New("account name is required")

// Manager implements secret generation and code verification for TOTP.
type Manager struct {
	issuer string
	skew   uint
	now    func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the time source used by Verify.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs a Manager for the given issuer. A skew of 0 disables
// the ±step tolerance.
func NewManager(issuer string, skew uint, opts ...Option) *Manager {
	m := &Manager{issuer: issuer, skew: skew, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate creates a fresh random secret for account.
func (m *Manager) Generate(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", ErrEmptyAccount
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: account,
		Period:      period,
		SecretSize:  SecretBytes,
		Digits:      libOTP.DigitsSix,
		Algorithm:   libOTP.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

// EnrollmentURI renders the otpauth URI for an account and its secret in the
// form otpauth://totp/{issuer}:{account}?secret={secret}&issuer={issuer}.
func (m *Manager) EnrollmentURI(account, secret string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(m.issuer),
		url.PathEscape(account),
		url.QueryEscape(secret),
		url.QueryEscape(m.issuer),
	)
}

// Verify reports whether code is valid for secret at the manager's current time.
func (m *Manager) Verify(secret, code string) bool {
	return m.VerifyAt(secret, code, m.now())
}

// VerifyAt reports whether code is valid for secret at the given instant.
func (m *Manager) VerifyAt(secret, code string, at time.Time) bool {
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at.UTC(), m.validateOpts())
	return ok && err == nil
}

// GenerateCode returns the code for secret at the given instant.
func (m *Manager) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at.UTC(), m.validateOpts())
}

func (m *Manager) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    period,
		Skew:      m.skew,
		Digits:    libOTP.DigitsSix,
		Algorithm: libOTP.AlgorithmSHA1,
	}
}
