package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/payments"
)

// RegisterPaymentRoutes wires the transfer pages behind requireLogin.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, requireLogin, idempotency fiber.Handler) {
	r.Get("/give_money", requireLogin, h.GiveMoneyForm)
	if idempotency != nil {
		r.Post("/give_money", requireLogin, idempotency, h.GiveMoney)
	} else {
		r.Post("/give_money", requireLogin, h.GiveMoney)
	}
	r.Get("/qr_gen/:payload", requireLogin, h.ShowCode)
	r.Get("/qr_decode", requireLogin, h.RedeemForm)
	r.Post("/qr_decode", requireLogin, h.Redeem)
}
