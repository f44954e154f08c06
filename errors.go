package authcore

import "errors"

var (
	// ErrInvalidCredentials covers unknown user, missing password hash
	// (OAuth-only account), and password mismatch. The cases are
	// intentionally indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpiredCode covers OTP mismatch, a consumed code, and
	// TTL lapse of a code or pending registration.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	// ErrUnauthenticated covers a missing, invalid, expired, revoked, or
	// correlator-mismatched token pair. Fail-closed: store errors during
	// authentication also map here.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrConflict is returned when registration targets an email that
	// already has an account.
	ErrConflict = errors.New("user already exists")
	// ErrUpstreamFailure covers OAuth provider and mail delivery errors.
	ErrUpstreamFailure = errors.New("upstream request failed")
	// ErrUserNotFound is returned by flows that legitimately disclose
	// account existence (refresh, 2FA code request, OAuth login of an
	// unregistered identity).
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordReuse rejects a password change to the current password.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrUnknownProvider is returned for an OAuth provider the engine was
	// not configured with.
	ErrUnknownProvider = errors.New("unknown oauth provider")
	// ErrEngineNotReady indicates the engine was not built through the
	// Builder or a required dependency is missing.
	ErrEngineNotReady = errors.New("engine not initialized")
)
