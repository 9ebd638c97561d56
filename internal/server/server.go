package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sagaragarwal94/qr-crypto/internal/config"
	"github.com/sagaragarwal94/qr-crypto/internal/routes"
	"github.com/sagaragarwal94/qr-crypto/internal/web"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	return NewWithDeps(routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger})
}

// NewWithDeps is New with full control over the route dependencies.
func NewWithDeps(d routes.Deps) (*Server, error) {
	var views *web.Renderer
	app := fiber.New(fiber.Config{
		AppName:      d.Cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    d.Cfg.MaxUploadBytes,
		Immutable:    true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return handleError(c, err, views, d.Logger)
		},
	})

	views, err := routes.Setup(app, d)
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: d.Cfg, db: d.DB, cache: d.Cache}, nil
}

// App exposes the underlying Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleError renders a page for errors that reached the flow boundary. Only
// fiber errors carry a user-visible message; everything else is a 500.
func handleError(c *fiber.Ctx, err error, views *web.Renderer, logger *slog.Logger) error {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		logger.Error("unhandled error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}

	if views == nil {
		return c.Status(status).SendString(message)
	}
	page := web.Page{Title: http.StatusText(status), Data: message}
	if rerr := views.Render(c, status, "error", page); rerr != nil {
		logger.Error("render error page", slog.Any("error", rerr))
		return c.Status(status).SendString(message)
	}
	return nil
}
