package authcore

import (
	"context"
	"errors"
	"net/http"
)

// RequestOTP generates a fresh code for email, stores it (overwriting
// any earlier code under the same key), and mails it.
//
// When forLogin is set the request is the second step of a two-factor
// login and the account must exist; otherwise the call succeeds whether
// or not an account exists so the endpoint cannot be used to enumerate
// users.
func (e *Engine) RequestOTP(ctx context.Context, email string, forLogin bool) error {
	if e == nil || e.otps == nil {
		return ErrEngineNotReady
	}

	if forLogin {
		if _, err := e.users.FindByEmail(ctx, email); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return ErrUserNotFound
			}
			e.log.ErrorContext(ctx, "otp user lookup failed", "error", err)
			return ErrUpstreamFailure
		}
	}

	code, err := generateOTP(e.config.OTP.Digits)
	if err != nil {
		return err
	}

	if err := e.otps.Issue(ctx, email, code, e.config.OTP.TTL); err != nil {
		e.log.ErrorContext(ctx, "otp store failed", "error", err)
		return ErrUpstreamFailure
	}

	if err := e.mailer.Send(ctx, email, mailTemplateVerify, map[string]string{"otp": code}); err != nil {
		e.log.ErrorContext(ctx, "otp mail failed", "error", err)
		return ErrUpstreamFailure
	}

	e.metricInc(MetricOTPIssued)
	return nil
}

// VerifyOTP consumes the code stored for email. On a match the code is
// deleted and cannot be replayed; a mismatch leaves it in place so the
// user may retry until the code's TTL lapses. Store failures are
// reported as an invalid code, never as success.
func (e *Engine) VerifyOTP(ctx context.Context, email, code string) error {
	if e == nil || e.otps == nil {
		return ErrEngineNotReady
	}

	ok, err := e.otps.Consume(ctx, email, code)
	if err != nil {
		e.log.ErrorContext(ctx, "otp consume failed", "error", err)
		return ErrInvalidOrExpiredCode
	}
	if !ok {
		e.metricInc(MetricOTPRejected)
		return ErrInvalidOrExpiredCode
	}

	e.metricInc(MetricOTPConsumed)
	return nil
}

// VerifyLoginOTP completes a two-factor login: it consumes the code and,
// on success, runs the same user-view assembly and session issuance as
// a plain login. The password was already verified in the Login call
// that triggered the challenge.
func (e *Engine) VerifyLoginOTP(ctx context.Context, w http.ResponseWriter, email, code string) (*LoginResult, error) {
	if err := e.VerifyOTP(ctx, email, code); err != nil {
		return nil, err
	}

	rec, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		e.log.ErrorContext(ctx, "otp login lookup failed", "error", err)
		return nil, ErrUpstreamFailure
	}

	return e.issueSession(ctx, w, rec, MetricLoginSuccess)
}
