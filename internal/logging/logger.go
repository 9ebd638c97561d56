package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const redacted = "[redacted]"

// sensitive attribute keys never reach the log output.
var sensitive = map[string]struct{}{
	"password":       {},
	"password_again": {},
	"token":          {},
	"otp_secret":     {},
	"session":        {},
}

// New creates a JSON slog logger on stdout tagged with the application name.
// An unknown level falls back to info.
func New(level, app string) *slog.Logger {
	return newLogger(os.Stdout, level, app)
}

func newLogger(w io.Writer, level, app string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: redact,
	}))
	if app != "" {
		logger = logger.With(slog.String("app", app))
	}
	return logger
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitive[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

// Discard returns a logger that drops all output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
