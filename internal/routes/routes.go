package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sagaragarwal94/qr-crypto/internal/auth"
	"github.com/sagaragarwal94/qr-crypto/internal/config"
	"github.com/sagaragarwal94/qr-crypto/internal/identity"
	"github.com/sagaragarwal94/qr-crypto/internal/ledger"
	"github.com/sagaragarwal94/qr-crypto/internal/middleware"
	"github.com/sagaragarwal94/qr-crypto/internal/notification"
	"github.com/sagaragarwal94/qr-crypto/internal/otp"
	"github.com/sagaragarwal94/qr-crypto/internal/payments"
	"github.com/sagaragarwal94/qr-crypto/internal/session"
	"github.com/sagaragarwal94/qr-crypto/internal/validation"
	"github.com/sagaragarwal94/qr-crypto/internal/web"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Users and TOTP replace the defaults chosen from DB and Cfg when set.
	Users identity.Repository
	TOTP  *otp.Manager
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (*web.Renderer, error) {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Backends: Postgres/Redis when configured, process memory otherwise.
	var (
		identityRepo  identity.Repository
		ledgerBackend ledger.Ledger
		sessionStore  session.Store
		vouchers      payments.Registry
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		ledgerBackend = ledger.NewInMemory()
	}
	if d.Users != nil {
		identityRepo = d.Users
	}
	if d.Cache != nil {
		sessionStore = session.NewRedisStore(d.Cache)
		vouchers = payments.NewRedisRegistry(d.Cache)
	} else {
		sessionStore = session.NewMemoryStore()
		vouchers = payments.NewMemoryRegistry()
	}

	totp := d.TOTP
	if totp == nil {
		totp = otp.NewManager(d.Cfg.TOTPIssuer, d.Cfg.TOTPSkew)
	}
	validate, err := validation.New()
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(sessionStore, d.Cfg.SessionTTL, d.Cfg.SessionCookieSecure)
	views, err := web.NewRenderer(sessions)
	if err != nil {
		return nil, err
	}
	notifier := notification.NewLoggerNotifier(d.Logger)

	identitySvc := identity.NewService(identityRepo, totp, ledgerBackend, validate, d.Logger)
	authSvc := auth.NewService(identitySvc, sessions, d.Logger)
	paymentSvc := payments.NewService(ledgerBackend, payments.NewCodec(d.Cfg.QRSize), vouchers, identityRepo, notifier, validate, d.Logger)

	identityHandler := identity.NewHandler(identitySvc, sessions, views, d.Logger)
	authHandler := auth.NewHandler(authSvc, sessions, views)
	paymentHandler := payments.NewHandler(paymentSvc, sessions, views, d.Logger)

	// Public routes
	RegisterIndexRoute(app, views)
	RegisterIdentityRoutes(app, identityHandler)
	RegisterAuthRoutes(app, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute, d.Logger))

	// Protected routes
	requireLogin := middleware.RequireLogin(sessions)
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterWalletRoute(app, identitySvc, ledgerBackend, views, requireLogin)
	RegisterPaymentRoutes(app, paymentHandler, requireLogin, idempotency)

	return views, nil
}
