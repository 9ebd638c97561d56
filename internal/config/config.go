package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultAppName         = "QRWallet"
	defaultAppEnv          = "development"
	defaultPort            = "5026"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultSessionTTL      = 24 * time.Hour
	defaultTOTPIssuer      = "2FA-Demo"
	defaultTOTPSkew        = 1
	defaultLoginAttempts   = 5
	defaultQRSize          = 256
	defaultMaxUploadBytes  = 4 << 20
	defaultConnectDeadline = 30 * time.Second
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName                string
	AppEnv                 string
	Port                   string
	LogLevel               string
	DatabaseURL            string
	RedisURL               string
	ShutdownPeriod         time.Duration
	IdempotencyTTL         time.Duration
	SessionTTL             time.Duration
	SessionCookieSecure    bool
	TOTPIssuer             string
	TOTPSkew               uint
	LoginAttemptsPerMinute int
	QRSize                 int
	MaxUploadBytes         int
	ConnectTimeout         time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
// Outside production a .env file in the working directory is honoured when present.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if !strings.EqualFold(v.GetString("APP_ENV"), "production") {
		// a missing .env is the common case
		_ = godotenv.Load()
	}

	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("APP_ENV", defaultAppEnv)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownDelay.String())
	v.SetDefault("IDEMPOTENCY_TTL", defaultIdempotencyTTL.String())
	v.SetDefault("SESSION_TTL", defaultSessionTTL.String())
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("TOTP_ISSUER", defaultTOTPIssuer)
	v.SetDefault("TOTP_SKEW", defaultTOTPSkew)
	v.SetDefault("LOGIN_ATTEMPTS_PER_MINUTE", defaultLoginAttempts)
	v.SetDefault("QR_SIZE", defaultQRSize)
	v.SetDefault("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	v.SetDefault("CONNECT_ATTEMPTS_TIMEOUT", defaultConnectDeadline.String())

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppName:                v.GetString("APP_NAME"),
		AppEnv:                 v.GetString("APP_ENV"),
		Port:                   v.GetString("PORT"),
		LogLevel:               strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		RedisURL:               v.GetString("REDIS_URL"),
		SessionCookieSecure:    v.GetBool("SESSION_COOKIE_SECURE"),
		TOTPIssuer:             v.GetString("TOTP_ISSUER"),
		TOTPSkew:               v.GetUint("TOTP_SKEW"),
		LoginAttemptsPerMinute: v.GetInt("LOGIN_ATTEMPTS_PER_MINUTE"),
		QRSize:                 v.GetInt("QR_SIZE"),
		MaxUploadBytes:         v.GetInt("MAX_UPLOAD_BYTES"),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"SESSION_TTL", &cfg.SessionTTL},
		{"CONNECT_ATTEMPTS_TIMEOUT", &cfg.ConnectTimeout},
	}
	for _, d := range durations {
		val, err := parseDuration(v.GetString(d.key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = val
	}

	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.QRSize < 64 {
		return Config{}, fmt.Errorf("QR_SIZE must be at least 64")
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// parseDuration accepts Go durations ("90s") as well as bare seconds ("90").
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(raw + "s")
	if err != nil {
		return 0, err
	}
	return d, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the environment may run on in-memory backends.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
