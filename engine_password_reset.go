package authcore

import (
	"context"
	"errors"
)

// ChangePassword is the authenticated reset: the caller proves the old
// password and supplies a different new one.
func (e *Engine) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}
	if email == "" || oldPassword == "" || newPassword == "" {
		return ErrInvalidCredentials
	}

	rec, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		e.log.ErrorContext(ctx, "password change lookup failed", "error", err)
		return ErrUpstreamFailure
	}

	ok, err := e.hasher.Verify(oldPassword, rec.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if oldPassword == newPassword {
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := e.users.SetPassword(ctx, email, hash); err != nil {
		e.log.ErrorContext(ctx, "password update failed", "error", err)
		return ErrUpstreamFailure
	}

	e.metricInc(MetricPasswordResetSuccess)
	return nil
}

// ResetPasswordAnon overwrites the password without the old one. It is
// reachable only after the client has consumed a reset OTP for the same
// email via VerifyOTP; the OTP consume is the gate for this flow.
func (e *Engine) ResetPasswordAnon(ctx context.Context, email, newPassword string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}
	if email == "" || newPassword == "" {
		return ErrInvalidCredentials
	}

	if _, err := e.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		e.log.ErrorContext(ctx, "anonymous reset lookup failed", "error", err)
		return ErrUpstreamFailure
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := e.users.SetPassword(ctx, email, hash); err != nil {
		e.log.ErrorContext(ctx, "anonymous reset update failed", "error", err)
		return ErrUpstreamFailure
	}

	e.metricInc(MetricPasswordResetSuccess)
	return nil
}
