package identity

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/qrcode"
	"github.com/sagaragarwal94/qr-crypto/internal/session"
	"github.com/sagaragarwal94/qr-crypto/internal/validation"
	"github.com/sagaragarwal94/qr-crypto/internal/web"
)

const enrollmentQRScale = 4

// Handler exposes registration and enrollment pages.
type Handler struct {
	service  *Service
	sessions *session.Manager
	views    *web.Renderer
	logger   *slog.Logger
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service, sessions *session.Manager, views *web.Renderer, logger *slog.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, views: views, logger: logger}
}

// RegisterForm shows the registration form.
func (h *Handler) RegisterForm(c *fiber.Ctx) error {
	if _, ok, err := h.sessions.UserID(c); err != nil {
		return err
	} else if ok {
		return c.Redirect("/", http.StatusFound)
	}
	return h.views.Render(c, http.StatusOK, "register", web.Page{Title: "Register"})
}

// Register creates the account and hands the username to the enrollment page.
func (h *Handler) Register(c *fiber.Ctx) error {
	if _, ok, err := h.sessions.UserID(c); err != nil {
		return err
	} else if ok {
		return c.Redirect("/", http.StatusSeeOther)
	}

	var in RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.Register(c.UserContext(), in)
	var verrs validation.Errors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		return h.views.Render(c, http.StatusUnprocessableEntity, "register", web.Page{
			Title:  "Register",
			Form:   map[string]string{"username": in.Username, "phone_number": in.Phone},
			Errors: verrs,
		})
	case errors.Is(err, ErrDuplicateUsername):
		return h.flashBack(c, "Username already exists.")
	case errors.Is(err, ErrDuplicatePhone):
		return h.flashBack(c, "Phone number already registered.")
	default:
		return err
	}

	if err := h.sessions.BeginEnrollment(c, user.Username); err != nil {
		return err
	}
	return c.Redirect("/twofactor", http.StatusSeeOther)
}

func (h *Handler) flashBack(c *fiber.Ctx, msg string) error {
	if err := h.sessions.AddFlash(c, msg); err != nil {
		return err
	}
	return c.Redirect("/register", http.StatusSeeOther)
}

// TwoFactor shows the enrollment page for the user parked in the session.
func (h *Handler) TwoFactor(c *fiber.Ctx) error {
	username, err := h.sessions.PeekEnrollmentUser(c)
	if errors.Is(err, session.ErrSessionExpired) {
		return c.Redirect("/", http.StatusFound)
	}
	if err != nil {
		return err
	}
	if _, err := h.service.Lookup(c.UserContext(), username); errors.Is(err, ErrUserNotFound) {
		return c.Redirect("/", http.StatusFound)
	} else if err != nil {
		return err
	}
	web.NoStore(c)
	return h.views.Render(c, http.StatusOK, "twofactor", web.Page{Title: "Two-factor setup"})
}

// QRCode renders the enrollment QR as SVG exactly once per registration.
func (h *Handler) QRCode(c *fiber.Ctx) error {
	username, err := h.sessions.CompleteEnrollment(c)
	if errors.Is(err, session.ErrSessionExpired) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}
	user, err := h.service.Lookup(c.UserContext(), username)
	if errors.Is(err, ErrUserNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}

	svg, err := qrcode.EncodeSVG(h.service.EnrollmentURI(user), enrollmentQRScale)
	if err != nil {
		return err
	}
	h.logger.Info("enrollment code issued", slog.String("user_id", user.ID))
	web.NoStore(c)
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Status(http.StatusOK).Send(svg)
}
