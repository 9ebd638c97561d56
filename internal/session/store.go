// Package session keeps per-browser server-side state keyed by an opaque
// random token carried in an HTTP-only cookie.
package session

import (
	"context"
	"time"
)

// Store persists session fields. Implementations must make Take atomic so a
// field can be consumed by exactly one caller.
type Store interface {
	// Get returns a field value and whether it was present.
	Get(ctx context.Context, token, field string) (string, bool, error)
	// Set writes fields and (re)arms the session expiry.
	Set(ctx context.Context, token string, values map[string]string, ttl time.Duration) error
	// Take returns a field value and removes it in one step.
	Take(ctx context.Context, token, field string) (string, bool, error)
	// Delete drops the whole session.
	Delete(ctx context.Context, token string) error
	// Append adds value to field, joined to any existing value by sep, and
	// re-arms the expiry in one step.
	Append(ctx context.Context, token, field, value, sep string, ttl time.Duration) error
	// Touch re-arms the expiry of an existing session. Missing sessions are ignored.
	Touch(ctx context.Context, token string, ttl time.Duration) error
}
