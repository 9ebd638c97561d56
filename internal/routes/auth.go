package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/auth"
)

// RegisterAuthRoutes wires login and logout.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Get("/login", h.LoginForm)
	if rateLimiter != nil {
		r.Post("/login", rateLimiter, h.Login)
	} else {
		r.Post("/login", h.Login)
	}
	r.Get("/logout", h.Logout)
}
