package auth

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/identity"
	"github.com/sagaragarwal94/qr-crypto/internal/session"
)

// Authenticator checks the three login factors.
type Authenticator interface {
	Authenticate(ctx context.Context, in identity.LoginInput) (identity.User, error)
}

// Service binds successful authentication to the browser session.
type Service struct {
	ids      Authenticator
	sessions *session.Manager
	logger   *slog.Logger
}

// NewService constructs the login service.
func NewService(ids Authenticator, sessions *session.Manager, logger *slog.Logger) *Service {
	return &Service{ids: ids, sessions: sessions, logger: logger}
}

// Login authenticates in and, on success, starts a session under a fresh token.
func (s *Service) Login(c *fiber.Ctx, in identity.LoginInput) (identity.User, error) {
	user, err := s.ids.Authenticate(c.UserContext(), in)
	if err != nil {
		return identity.User{}, err
	}
	if err := s.sessions.Login(c, user.ID); err != nil {
		return identity.User{}, err
	}
	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return user, nil
}

// Logout ends the current session.
func (s *Service) Logout(c *fiber.Ctx) error {
	userID, ok, err := s.sessions.UserID(c)
	if err != nil {
		return err
	}
	if err := s.sessions.Logout(c); err != nil {
		return err
	}
	if ok {
		s.logger.Info("user logged out", slog.String("user_id", userID))
	}
	return nil
}
