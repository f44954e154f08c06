package authcore

import (
	"context"
	"errors"
	"net/http"
)

// Register parks the candidate profile in the ephemeral store and mails
// a verification code. No account exists until VerifyRegistration
// succeeds; an unverified submission silently expires and the
// registration must be restarted.
func (e *Engine) Register(ctx context.Context, input RegisterInput) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	if _, err := e.users.FindByEmail(ctx, input.Email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, ErrUserNotFound) {
		e.log.ErrorContext(ctx, "registration lookup failed", "error", err)
		return ErrUpstreamFailure
	}

	code, err := generateOTP(e.config.OTP.Digits)
	if err != nil {
		return err
	}

	pending := &PendingRegistration{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
		OTP:       code,
	}
	if err := e.pending.Save(ctx, pending, e.config.Registration.PendingTTL); err != nil {
		e.log.ErrorContext(ctx, "pending registration save failed", "error", err)
		return ErrUpstreamFailure
	}

	if err := e.mailer.Send(ctx, input.Email, mailTemplateVerify, map[string]string{"otp": code}); err != nil {
		e.log.ErrorContext(ctx, "verification mail failed", "error", err)
		return ErrUpstreamFailure
	}

	e.metricInc(MetricRegistrationStarted)
	return nil
}

// VerifyRegistration promotes a pending registration into a permanent
// account when the submitted code matches, then issues a session. The
// password is hashed only here, at promotion time. A wrong code leaves
// the pending record in place for retry; a missing or expired record
// fails the same way and creates nothing.
func (e *Engine) VerifyRegistration(ctx context.Context, w http.ResponseWriter, email, code string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	pending, err := e.pending.Get(ctx, email)
	if err != nil {
		if !errors.Is(err, errPendingNotFound) {
			e.log.ErrorContext(ctx, "pending registration read failed", "error", err)
		}
		return nil, ErrInvalidOrExpiredCode
	}

	if code == "" || pending.OTP != code {
		e.metricInc(MetricOTPRejected)
		return nil, ErrInvalidOrExpiredCode
	}

	if err := e.pending.Delete(ctx, email); err != nil {
		e.log.ErrorContext(ctx, "pending registration delete failed", "error", err)
		return nil, ErrUpstreamFailure
	}

	hash, err := e.hasher.Hash(pending.Password)
	if err != nil {
		return nil, err
	}

	// Self-service accounts are promoted verified and with two-factor
	// switched on; only OAuth-created accounts start without it.
	rec, err := e.users.Create(ctx, CreateUserInput{
		Email:            pending.Email,
		FirstName:        pending.FirstName,
		LastName:         pending.LastName,
		PasswordHash:     hash,
		TwoFactorEnabled: true,
		Verified:         true,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		e.log.ErrorContext(ctx, "user creation failed", "error", err)
		return nil, ErrUpstreamFailure
	}

	e.metricInc(MetricOTPConsumed)
	e.metricInc(MetricRegistrationCompleted)
	return e.issueSession(ctx, w, rec, MetricLoginSuccess)
}
