package authcore

import (
	"context"
	"errors"
	"net/http"

	"github.com/statroom/authcore/oauth"
)

// OAuth auth types. Login requires an existing local account; register
// creates one when absent.
const (
	OAuthTypeLogin    = "login"
	OAuthTypeRegister = "register"
)

// OAuthRequest carries the provider name and the authorization material
// the client obtained from it.
type OAuthRequest struct {
	Provider    string
	AuthType    string
	Code        string
	AccessToken string
}

// OAuthResult is a LoginResult plus whether the reconciler created the
// account on this call.
type OAuthResult struct {
	LoginResult
	NewUser bool
}

// OAuthLogin runs the reconciliation state machine: fetch the provider
// profile, resolve it to a local user keyed by email, issue a session.
// A provider failure aborts the flow with nothing persisted. The
// reconciler links to an existing account when the emails match; it
// never merges two different emails.
func (e *Engine) OAuthLogin(ctx context.Context, w http.ResponseWriter, req OAuthRequest) (*OAuthResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	provider, ok := e.providers[req.Provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	profile, err := provider.FetchProfile(ctx, oauth.Credentials{Code: req.Code, AccessToken: req.AccessToken})
	if err != nil {
		e.metricInc(MetricOAuthLoginFailure)
		e.log.WarnContext(ctx, "oauth profile fetch failed", "provider", req.Provider, "error", err)
		return nil, errors.Join(ErrUpstreamFailure, err)
	}

	rec, created, err := e.resolveOAuthUser(ctx, profile, req.AuthType)
	if err != nil {
		e.metricInc(MetricOAuthLoginFailure)
		return nil, err
	}

	result, err := e.issueSession(ctx, w, rec, MetricOAuthLoginSuccess)
	if err != nil {
		return nil, err
	}

	return &OAuthResult{LoginResult: *result, NewUser: created}, nil
}

// resolveOAuthUser is the idempotent create-or-fetch. Concurrent first
// logins from the same identity may both attempt the create; the loser
// of that race re-fetches instead of failing, so existing credentials
// are never overwritten.
func (e *Engine) resolveOAuthUser(ctx context.Context, profile *oauth.Profile, authType string) (*UserRecord, bool, error) {
	rec, err := e.users.FindByEmail(ctx, profile.Email)
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		e.log.ErrorContext(ctx, "oauth user lookup failed", "error", err)
		return nil, false, ErrUpstreamFailure
	}

	if authType == OAuthTypeLogin {
		return nil, false, ErrUserNotFound
	}

	created, err := e.users.Create(ctx, CreateUserInput{
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Picture:   profile.Picture,
		Verified:  true,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			existing, fetchErr := e.users.FindByEmail(ctx, profile.Email)
			if fetchErr != nil {
				return nil, false, ErrUpstreamFailure
			}
			return existing, false, nil
		}
		e.log.ErrorContext(ctx, "oauth user creation failed", "error", err)
		return nil, false, ErrUpstreamFailure
	}

	return created, true, nil
}
