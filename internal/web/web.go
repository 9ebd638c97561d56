// Package web renders the HTML pages of the application from embedded templates.
package web

import (
	"bytes"
	"encoding/base64"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Session is the view of the request session every page needs.
type Session interface {
	Flashes(c *fiber.Ctx) ([]string, error)
	UserID(c *fiber.Ctx) (string, bool, error)
}

// Page is the data handed to a template. Flashes and LoggedIn are filled in
// by the Renderer.
type Page struct {
	Title    string
	Flashes  []string
	LoggedIn bool
	Form     map[string]string
	Errors   map[string]string
	Data     any
}

// Renderer executes page templates wrapped in the shared layout.
type Renderer struct {
	pages    map[string]*template.Template
	sessions Session
}

// NewRenderer parses every embedded page against the layout.
func NewRenderer(sessions Session) (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, file := range names {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		tmpl, err := template.ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, sessions: sessions}, nil
}

// MustNewRenderer is NewRenderer for wiring code.
func MustNewRenderer(sessions Session) *Renderer {
	r, err := NewRenderer(sessions)
	if err != nil {
		panic(err)
	}
	return r
}

// Render writes the named page with status. Queued flashes are consumed.
func (r *Renderer) Render(c *fiber.Ctx, status int, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if r.sessions != nil {
		flashes, err := r.sessions.Flashes(c)
		if err != nil {
			return err
		}
		page.Flashes = append(flashes, page.Flashes...)
		if _, ok, err := r.sessions.UserID(c); err == nil {
			page.LoggedIn = ok
		}
	}
	if page.Form == nil {
		page.Form = map[string]string{}
	}
	if page.Errors == nil {
		page.Errors = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// DataURI inlines data as a base64 data: URL usable in an img src.
func DataURI(mime string, data []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}

// NoStore marks the response as uncacheable.
func NoStore(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
}
