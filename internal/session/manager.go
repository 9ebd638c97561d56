package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	// CookieName carries the session token.
	CookieName = "session_token"

	tokenBytes     = 32
	maxTokenLength = 64
	fieldUserID    = "user_id"
	fieldFlash     = "flash"
	flashSep       = "\x1f"
	localsToken    = "session.token"
	localsUserID   = "user_id"
)

// Manager ties a Store to the request cookie. Handlers receive it through
// their constructors; it holds no per-request state of its own.
type Manager struct {
	store   Store
	handoff *Handoff
	ttl     time.Duration
	secure  bool
}

// NewManager builds a Manager whose sessions live for ttl.
func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, handoff: NewHandoff(store, ttl), ttl: ttl, secure: secure}
}

// NewToken returns a URL-safe random token with 256 bits of entropy.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (m *Manager) existingToken(c *fiber.Ctx) (string, bool) {
	if tok, ok := c.Locals(localsToken).(string); ok && tok != "" {
		return tok, true
	}
	// the cookie value aliases the request buffer
	tok := utils.CopyString(c.Cookies(CookieName))
	if tok == "" || len(tok) > maxTokenLength || strings.ContainsAny(tok, " ;,") {
		return "", false
	}
	return tok, true
}

// Token returns the request's session token, issuing a new cookie when the
// browser has none.
func (m *Manager) Token(c *fiber.Ctx) (string, error) {
	if tok, ok := m.existingToken(c); ok {
		return tok, nil
	}
	return m.issue(c)
}

func (m *Manager) issue(c *fiber.Ctx) (string, error) {
	tok, err := NewToken()
	if err != nil {
		return "", err
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	c.Locals(localsToken, tok)
	return tok, nil
}

// BeginEnrollment parks username in the session until the QR is rendered.
func (m *Manager) BeginEnrollment(c *fiber.Ctx, username string) error {
	tok, err := m.Token(c)
	if err != nil {
		return err
	}
	return m.handoff.Begin(c.UserContext(), tok, username)
}

// PeekEnrollmentUser returns the pending username without consuming it.
func (m *Manager) PeekEnrollmentUser(c *fiber.Ctx) (string, error) {
	tok, ok := m.existingToken(c)
	if !ok {
		return "", ErrSessionExpired
	}
	return m.handoff.Peek(c.UserContext(), tok)
}

// CompleteEnrollment returns and clears the pending username.
func (m *Manager) CompleteEnrollment(c *fiber.Ctx) (string, error) {
	tok, ok := m.existingToken(c)
	if !ok {
		return "", ErrSessionExpired
	}
	return m.handoff.Complete(c.UserContext(), tok)
}

// Login discards any previous session and starts an authenticated one under
// a fresh token.
func (m *Manager) Login(c *fiber.Ctx, userID string) error {
	if old, ok := m.existingToken(c); ok {
		if err := m.store.Delete(c.UserContext(), old); err != nil {
			return err
		}
		c.Locals(localsToken, nil)
	}
	tok, err := m.issue(c)
	if err != nil {
		return err
	}
	return m.store.Set(c.UserContext(), tok, map[string]string{fieldUserID: userID}, m.ttl)
}

// UserID returns the authenticated user of the request, if any.
func (m *Manager) UserID(c *fiber.Ctx) (string, bool, error) {
	tok, ok := m.existingToken(c)
	if !ok {
		return "", false, nil
	}
	id, ok, err := m.store.Get(c.UserContext(), tok, fieldUserID)
	if err != nil || !ok || id == "" {
		return "", false, err
	}
	if err := m.store.Touch(c.UserContext(), tok, m.ttl); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Logout removes the session and expires the cookie.
func (m *Manager) Logout(c *fiber.Ctx) error {
	tok, ok := m.existingToken(c)
	if !ok {
		return nil
	}
	c.ClearCookie(CookieName)
	c.Locals(localsToken, nil)
	return m.store.Delete(c.UserContext(), tok)
}

// AddFlash queues a one-shot message for the next rendered page.
func (m *Manager) AddFlash(c *fiber.Ctx, msg string) error {
	tok, err := m.Token(c)
	if err != nil {
		return err
	}
	return m.store.Append(c.UserContext(), tok, fieldFlash, msg, flashSep, m.ttl)
}

// Flashes returns and clears queued messages.
func (m *Manager) Flashes(c *fiber.Ctx) ([]string, error) {
	tok, ok := m.existingToken(c)
	if !ok {
		return nil, nil
	}
	raw, ok, err := m.store.Take(c.UserContext(), tok, fieldFlash)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	return strings.Split(raw, flashSep), nil
}

// Remember stores the authenticated user id on the request for later handlers.
func Remember(c *fiber.Ctx, userID string) {
	c.Locals(localsUserID, userID)
}

// CurrentUser returns the user id stored by Remember.
func CurrentUser(c *fiber.Ctx) string {
	id, _ := c.Locals(localsUserID).(string)
	return id
}
