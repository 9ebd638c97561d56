package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/identity"
)

// RegisterIdentityRoutes wires registration and TOTP enrollment.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/twofactor", h.TwoFactor)
	r.Get("/qrcode", h.QRCode)
}
