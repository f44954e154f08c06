package authcore

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/statroom/authcore/mail"
	"github.com/statroom/authcore/oauth"
	"github.com/statroom/authcore/password"
	"github.com/statroom/authcore/token"
)

// Engine is the authentication and session-security core. All state
// lives in the injected collaborators; the engine itself is immutable
// after Build and safe for concurrent use.
type Engine struct {
	config    Config
	log       *slog.Logger
	users     UserStore
	mailer    mail.Mailer
	sessions  *sessionIssuer
	access    *token.Codec
	refresh   *token.Codec
	otps      *otpStore
	pending   *pendingStore
	ledger    RevocationLedger
	hasher    *password.Hasher
	providers map[string]oauth.Provider
	metrics   *Metrics
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// MetricsSnapshot returns the current counter values.
func (e *Engine) MetricsSnapshot() map[MetricID]uint64 {
	if e == nil {
		return map[MetricID]uint64{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies email+password. For accounts without two-factor it
// issues a session (cookies on w, anti-forgery token in the result).
// For two-factor accounts it sets TwoFactorRequired and mints nothing;
// the session comes only from VerifyLoginOTP. Unknown user, OAuth-only
// account, and wrong password are deliberately indistinguishable.
func (e *Engine) Login(ctx context.Context, w http.ResponseWriter, email, pass string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}
	if email == "" || pass == "" {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	rec, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.log.DebugContext(ctx, "login lookup failed", "reason", "user_not_found")
		return nil, ErrInvalidCredentials
	}
	if rec.PasswordHash == "" {
		// OAuth-only account; there is no password to match.
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(pass, rec.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	if rec.TwoFactorEnabled {
		e.metricInc(MetricTwoFactorChallenge)
		return &LoginResult{TwoFactorRequired: true}, nil
	}

	return e.issueSession(ctx, w, rec, MetricLoginSuccess)
}

// Refresh mints a fresh session/anti-forgery pair from the refresh
// cookie value. The refresh token is checked against the revocation
// ledger so a logged-out client cannot keep minting sessions, and the
// user is re-read from the credential store so the new session carries
// current attributes.
func (e *Engine) Refresh(ctx context.Context, w http.ResponseWriter, refreshToken string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrUnauthenticated
	}

	revoked, err := e.ledger.Exists(ctx, refreshToken)
	if err != nil || revoked {
		if err != nil {
			e.log.WarnContext(ctx, "revocation lookup failed during refresh", "error", err)
		}
		e.metricInc(MetricRefreshFailure)
		return nil, ErrUnauthenticated
	}

	claims, err := e.refresh.Verify(refreshToken)
	if err != nil || claims.User == nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrUnauthenticated
	}

	rec, err := e.users.FindByEmail(ctx, claims.User.Email)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrUserNotFound
	}

	return e.issueSession(ctx, w, rec, MetricRefreshSuccess)
}

// Authenticate is the request gate. It validates the session cookie
// value together with the anti-forgery header value and returns the
// embedded user view on success. Every failure, including ledger
// errors, collapses to ErrUnauthenticated; the gate never passes on
// ambiguity.
func (e *Engine) Authenticate(ctx context.Context, sessionToken, antiForgeryToken string) (*UserView, error) {
	if e == nil || e.ledger == nil {
		return nil, ErrEngineNotReady
	}
	if sessionToken == "" || antiForgeryToken == "" {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	}

	revoked, err := e.ledger.Exists(ctx, sessionToken)
	if err != nil || revoked {
		if err != nil {
			e.log.WarnContext(ctx, "revocation lookup failed during authentication", "error", err)
		}
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	}

	sessionClaims, err := e.access.Verify(sessionToken)
	if err != nil {
		e.log.DebugContext(ctx, "session token rejected", "error", err)
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	}

	antiForgeryClaims, err := e.access.Verify(antiForgeryToken)
	if err != nil {
		e.log.DebugContext(ctx, "anti-forgery token rejected", "error", err)
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	}

	if !token.MatchCorrelator(sessionClaims, antiForgeryClaims) {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	}
	if sessionClaims.User == nil {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	}

	e.metricInc(MetricAuthenticateSuccess)
	return sessionClaims.User, nil
}

// Logout records both cookie values in the revocation ledger and clears
// the cookies. Revoking an absent or already-revoked token is not an
// error; ledger rows expire after the maximum token lifetime since the
// tokens reject themselves beyond that.
func (e *Engine) Logout(ctx context.Context, w http.ResponseWriter, sessionToken, refreshToken string) error {
	if e == nil || e.ledger == nil {
		return ErrEngineNotReady
	}

	ttl := e.config.Token.RefreshTTL
	if sessionToken != "" {
		if err := e.ledger.Insert(ctx, sessionToken, ttl); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if err := e.ledger.Insert(ctx, refreshToken, ttl); err != nil {
			return err
		}
	}

	e.sessions.Clear(w)
	e.metricInc(MetricLogout)
	return nil
}

// issueSession assembles the signable user view and passes it through
// the session issuer. Every successful authentication path funnels
// through here, strictly after its credential or code check.
func (e *Engine) issueSession(ctx context.Context, w http.ResponseWriter, rec *UserRecord, success MetricID) (*LoginResult, error) {
	view := viewOf(rec)

	bundle, err := e.sessions.Issue(w, *view)
	if err != nil {
		e.log.ErrorContext(ctx, "session issuance failed", "error", err)
		return nil, err
	}

	e.metricInc(success)
	return &LoginResult{XSRFToken: bundle.AntiForgeryToken, User: view}, nil
}
