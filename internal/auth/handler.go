package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/identity"
	"github.com/sagaragarwal94/qr-crypto/internal/session"
	"github.com/sagaragarwal94/qr-crypto/internal/validation"
	"github.com/sagaragarwal94/qr-crypto/internal/web"
)

const invalidCredentialsMessage = "Invalid username, password or token."

// Handler exposes the login and logout pages.
type Handler struct {
	svc      *Service
	sessions *session.Manager
	views    *web.Renderer
}

// NewHandler constructs an auth handler.
func NewHandler(svc *Service, sessions *session.Manager, views *web.Renderer) *Handler {
	return &Handler{svc: svc, sessions: sessions, views: views}
}

// LoginForm shows the login form, or sends a logged in user home.
func (h *Handler) LoginForm(c *fiber.Ctx) error {
	if _, ok, err := h.sessions.UserID(c); err != nil {
		return err
	} else if ok {
		return c.Redirect("/", http.StatusFound)
	}
	return h.views.Render(c, http.StatusOK, "login", web.Page{Title: "Login"})
}

// Login checks password and token together.
func (h *Handler) Login(c *fiber.Ctx) error {
	if _, ok, err := h.sessions.UserID(c); err != nil {
		return err
	} else if ok {
		return c.Redirect("/", http.StatusSeeOther)
	}

	var in identity.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	_, err := h.svc.Login(c, in)
	var verrs validation.Errors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		return h.views.Render(c, http.StatusUnprocessableEntity, "login", web.Page{
			Title:  "Login",
			Form:   map[string]string{"username": in.Username},
			Errors: verrs,
		})
	case errors.Is(err, identity.ErrInvalidCredentials):
		return h.flashRedirect(c, invalidCredentialsMessage, "/login")
	default:
		return err
	}

	return h.flashRedirect(c, "You are now logged in!", "/")
}

// Logout clears the session and returns to the landing page.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.svc.Logout(c); err != nil {
		return err
	}
	return c.Redirect("/", http.StatusFound)
}

func (h *Handler) flashRedirect(c *fiber.Ctx, msg, location string) error {
	if err := h.sessions.AddFlash(c, msg); err != nil {
		return err
	}
	return c.Redirect(location, http.StatusSeeOther)
}
