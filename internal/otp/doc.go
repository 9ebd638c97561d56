// Package otp generates per-user TOTP secrets, builds the otpauth enrollment
// URI scanned by authenticator apps, and verifies submitted codes.
//
// The one-time password algorithm itself (RFC 6238) comes from
// github.com/pquerna/otp; this package only fixes the parameters the rest of
// the service relies on: 10-byte secrets (16 base32 characters), 30-second
// steps, 6 digits and a configurable clock-skew tolerance.
package otp
