package identity

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sagaragarwal94/qr-crypto/internal/logging"
	"github.com/sagaragarwal94/qr-crypto/internal/session"
	"github.com/sagaragarwal94/qr-crypto/internal/web"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc, _, _, _ := newTestService(t)
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour, false)
	h := NewHandler(svc, sessions, web.MustNewRenderer(sessions), logging.Discard())

	app := fiber.New()
	app.Get("/register", h.RegisterForm)
	app.Post("/register", h.Register)
	app.Get("/twofactor", h.TwoFactor)
	app.Get("/qrcode", h.QRCode)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string, form url.Values, cookie *http.Cookie) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func registrationForm(username, phone string) url.Values {
	return url.Values{
		"username":       {username},
		"password":       {"pw1"},
		"password_again": {"pw1"},
		"phone_number":   {phone},
	}
}

func TestRegisterThenEnrollOnce(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, fiber.MethodPost, "/register", registrationForm("alice", "0123456789"), nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get(fiber.HeaderLocation) != "/twofactor" {
		t.Fatalf("expected redirect to /twofactor, got %d %s", resp.StatusCode, resp.Header.Get(fiber.HeaderLocation))
	}
	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}

	resp = do(t, app, fiber.MethodGet, "/twofactor", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("twofactor: expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get(fiber.HeaderCacheControl); !strings.Contains(cc, "no-store") {
		t.Fatalf("twofactor must not be cached, got %q", cc)
	}

	resp = do(t, app, fiber.MethodGet, "/qrcode", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("qrcode: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "image/svg+xml" {
		t.Fatalf("expected svg, got %q", ct)
	}
	svg, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(svg), "<?xml") && !strings.HasPrefix(string(svg), "<svg") {
		t.Fatalf("unexpected body %q", svg[:min(len(svg), 40)])
	}

	resp = do(t, app, fiber.MethodGet, "/qrcode", nil, cookie)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second qrcode fetch: expected 404, got %d", resp.StatusCode)
	}
	resp = do(t, app, fiber.MethodGet, "/twofactor", nil, cookie)
	if resp.StatusCode != http.StatusFound || resp.Header.Get(fiber.HeaderLocation) != "/" {
		t.Fatalf("twofactor after enrollment: expected redirect to /, got %d", resp.StatusCode)
	}
}

func TestRegisterInvalidFormRerenders(t *testing.T) {
	app := newTestApp(t)
	form := registrationForm("bob", "12345")
	form.Set("password_again", "other")

	resp := do(t, app, fiber.MethodPost, "/register", form, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "phone_number") || !strings.Contains(string(body), "password_again") {
		t.Fatalf("expected inline errors, got %s", body)
	}
}

func TestRegisterDuplicateUsernameFlashes(t *testing.T) {
	app := newTestApp(t)
	do(t, app, fiber.MethodPost, "/register", registrationForm("alice", "0123456789"), nil)

	resp := do(t, app, fiber.MethodPost, "/register", registrationForm("alice", "9876543210"), nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get(fiber.HeaderLocation) != "/register" {
		t.Fatalf("expected redirect back to /register, got %d", resp.StatusCode)
	}
	cookie := sessionCookie(resp)
	resp = do(t, app, fiber.MethodGet, "/register", nil, cookie)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Username already exists.") {
		t.Fatalf("expected flash, got %s", body)
	}
}

func TestEnrollmentPagesWithoutSession(t *testing.T) {
	app := newTestApp(t)
	if resp := do(t, app, fiber.MethodGet, "/twofactor", nil, nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("twofactor: expected redirect, got %d", resp.StatusCode)
	}
	if resp := do(t, app, fiber.MethodGet, "/qrcode", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("qrcode: expected 404, got %d", resp.StatusCode)
	}
}
