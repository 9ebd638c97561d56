package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/session"
)

// RequireLogin sends anonymous visitors to the login page and records the
// authenticated user id for downstream handlers.
func RequireLogin(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := sessions.UserID(c)
		if err != nil {
			return err
		}
		if !ok {
			return c.Redirect("/login", http.StatusFound)
		}
		session.Remember(c, userID)
		return c.Next()
	}
}
