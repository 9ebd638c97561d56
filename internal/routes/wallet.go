package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/identity"
	"github.com/sagaragarwal94/qr-crypto/internal/ledger"
	"github.com/sagaragarwal94/qr-crypto/internal/session"
	"github.com/sagaragarwal94/qr-crypto/internal/web"
)

type walletView struct {
	Username string
	Phone    string
	Balance  int64
}

// RegisterWalletRoute exposes the current user's balance and phone number.
func RegisterWalletRoute(r fiber.Router, ids *identity.Service, wallets ledger.Ledger, views *web.Renderer, requireLogin fiber.Handler) {
	r.Get("/wallet", requireLogin, func(c *fiber.Ctx) error {
		uid := session.CurrentUser(c)
		user, err := ids.Get(c.UserContext(), uid)
		if err != nil {
			return err
		}
		bal, err := wallets.Balance(c.UserContext(), uid)
		if err != nil {
			return err
		}
		return views.Render(c, http.StatusOK, "wallet", web.Page{
			Title: "Wallet",
			Data:  walletView{Username: user.Username, Phone: user.Phone, Balance: bal},
		})
	})
}

// RegisterIndexRoute serves the landing page.
func RegisterIndexRoute(r fiber.Router, views *web.Renderer) {
	r.Get("/", func(c *fiber.Ctx) error {
		return views.Render(c, http.StatusOK, "index", web.Page{})
	})
}
