package session

import (
	"context"
	"errors"
	"time"
)

const fieldPendingEnrollment = "pending_enrollment"

// ErrSessionExpired means there is no pending enrollment for the session,
// either because registration never happened or the QR was already shown.
var ErrSessionExpired = errors.New("no pending enrollment")

// Handoff links a freshly registered account to its one-time TOTP enrollment.
type Handoff struct {
	store Store
	ttl   time.Duration
}

// NewHandoff builds a Handoff over store; ttl bounds how long the pending
// enrollment survives.
func NewHandoff(store Store, ttl time.Duration) *Handoff {
	return &Handoff{store: store, ttl: ttl}
}

// Begin records username as awaiting enrollment in the session.
func (h *Handoff) Begin(ctx context.Context, token, username string) error {
	return h.store.Set(ctx, token, map[string]string{fieldPendingEnrollment: username}, h.ttl)
}

// Peek returns the pending username without consuming it.
func (h *Handoff) Peek(ctx context.Context, token string) (string, error) {
	username, ok, err := h.store.Get(ctx, token, fieldPendingEnrollment)
	if err != nil {
		return "", err
	}
	if !ok || username == "" {
		return "", ErrSessionExpired
	}
	return username, nil
}

// Complete returns the pending username and clears it. Only the first call
// succeeds; later calls get ErrSessionExpired.
func (h *Handoff) Complete(ctx context.Context, token string) (string, error) {
	username, ok, err := h.store.Take(ctx, token, fieldPendingEnrollment)
	if err != nil {
		return "", err
	}
	if !ok || username == "" {
		return "", ErrSessionExpired
	}
	return username, nil
}
