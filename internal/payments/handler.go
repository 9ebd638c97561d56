package payments

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/ledger"
	"github.com/sagaragarwal94/qr-crypto/internal/session"
	"github.com/sagaragarwal94/qr-crypto/internal/validation"
	"github.com/sagaragarwal94/qr-crypto/internal/web"
)

const uploadField = "file"

// Handler exposes the transfer pages. Every route expects an authenticated
// user placed on the request by the login guard.
type Handler struct {
	service  *Service
	sessions *session.Manager
	views    *web.Renderer
	logger   *slog.Logger
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service, sessions *session.Manager, views *web.Renderer, logger *slog.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, views: views, logger: logger}
}

type balanceView struct {
	Balance int64
}

type transferView struct {
	Phone    string
	Amount   int64
	ImageURI template.URL
}

// GiveMoneyForm shows the transfer form with the current balance.
func (h *Handler) GiveMoneyForm(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), session.CurrentUser(c))
	if err != nil {
		return err
	}
	return h.views.Render(c, http.StatusOK, "give_money", web.Page{Title: "Give money", Data: balanceView{Balance: balance}})
}

// GiveMoney debits the sender and redirects to the transfer code.
func (h *Handler) GiveMoney(c *fiber.Ctx) error {
	var in TransferInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID := session.CurrentUser(c)

	transfer, err := h.service.Initiate(c.UserContext(), userID, in.Phone, in.Amount)
	var verrs validation.Errors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		balance, berr := h.service.Balance(c.UserContext(), userID)
		if berr != nil {
			return berr
		}
		return h.views.Render(c, http.StatusUnprocessableEntity, "give_money", web.Page{
			Title:  "Give money",
			Form:   map[string]string{"phone_number": in.Phone, "credits_transfer": in.Amount},
			Errors: verrs,
			Data:   balanceView{Balance: balance},
		})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return h.flashRedirect(c, "Insufficient funds.", "/give_money")
	default:
		return err
	}

	return c.Redirect("/qr_gen/"+transfer.Payload, http.StatusSeeOther)
}

// ShowCode renders the QR image for a transfer payload.
func (h *Handler) ShowCode(c *fiber.Ctx) error {
	p, img, err := h.service.Render(c.Params("payload"))
	if errors.Is(err, ErrInvalidPayload) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}
	return h.views.Render(c, http.StatusOK, "qr_gen", web.Page{
		Title: "Transfer code",
		Data:  transferView{Phone: p.Phone, Amount: p.Amount, ImageURI: web.DataURI("image/png", img)},
	})
}

// RedeemForm shows the upload form.
func (h *Handler) RedeemForm(c *fiber.Ctx) error {
	return h.views.Render(c, http.StatusOK, "qr_decode", web.Page{Title: "Redeem"})
}

// Redeem credits the uploaded transfer code to the current user.
func (h *Handler) Redeem(c *fiber.Ctx) error {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return h.flashRedirect(c, "Choose an image to upload.", "/qr_decode")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.service.Redeem(c.UserContext(), session.CurrentUser(c), f)
	switch {
	case err == nil:
	case errors.Is(err, ErrDecode):
		h.logger.Info("unreadable transfer code", slog.String("user_id", session.CurrentUser(c)), slog.Any("error", err))
		return h.flashRedirect(c, "Could not read a transfer code from that image.", "/qr_decode")
	case errors.Is(err, ErrTransferNotIssued):
		return h.flashRedirect(c, "This transfer code is not valid or was already redeemed.", "/qr_decode")
	default:
		return err
	}

	msg := fmt.Sprintf("Received %d credits. Your balance is %d.", res.Payload.Amount, res.Balance)
	return h.flashRedirect(c, msg, "/qr_decode")
}

func (h *Handler) flashRedirect(c *fiber.Ctx, msg, location string) error {
	if err := h.sessions.AddFlash(c, msg); err != nil {
		return err
	}
	return c.Redirect(location, http.StatusSeeOther)
}
