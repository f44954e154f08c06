package authcore

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/statroom/authcore/oauth"
)

// fakeProvider returns a fixed profile or error without any HTTP.
type fakeProvider struct {
	profile *oauth.Profile
	err     error
	calls   int
}

func (p *fakeProvider) FetchProfile(context.Context, oauth.Credentials) (*oauth.Profile, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

func newOAuthEnv(t *testing.T, provider oauth.Provider) *testEnv {
	t.Helper()

	env := newTestEnv(t)
	// Rebuild with the fake registered; the builder is single-use.
	engine, err := New().
		WithConfig(testConfig).
		WithRedis(env.engine.otps.redis).
		WithUserStore(env.users).
		WithMailer(env.mailer).
		WithLogger(env.engine.log).
		WithProvider("fake", provider).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	env.engine = engine
	return env
}

func TestOAuthRegisterCreatesAccount(t *testing.T) {
	provider := &fakeProvider{profile: &oauth.Profile{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Doe",
		Picture:   "https://example.com/a.png",
	}}
	env := newOAuthEnv(t, provider)

	rr := httptest.NewRecorder()
	result, err := env.engine.OAuthLogin(context.Background(), rr, OAuthRequest{
		Provider: "fake",
		AuthType: OAuthTypeRegister,
		Code:     "authcode",
	})
	if err != nil {
		t.Fatalf("oauth register: %v", err)
	}
	if !result.NewUser {
		t.Fatal("expected NewUser on first oauth registration")
	}

	rec, err := env.users.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("created account missing: %v", err)
	}
	if !rec.Verified {
		t.Fatal("oauth accounts are created verified")
	}
	if rec.TwoFactorEnabled {
		t.Fatal("oauth accounts start without two-factor")
	}
	if rec.PasswordHash != "" {
		t.Fatal("oauth accounts carry no password hash")
	}

	session := recordedCookie(t, rr, "token").Value
	if _, err := env.engine.Authenticate(context.Background(), session, result.XSRFToken); err != nil {
		t.Fatalf("authenticate after oauth: %v", err)
	}
}

func TestOAuthLoginRequiresExistingAccount(t *testing.T) {
	provider := &fakeProvider{profile: &oauth.Profile{Email: "alice@example.com"}}
	env := newOAuthEnv(t, provider)

	_, err := env.engine.OAuthLogin(context.Background(), httptest.NewRecorder(), OAuthRequest{
		Provider: "fake",
		AuthType: OAuthTypeLogin,
		Code:     "authcode",
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestOAuthLinksExistingAccountByEmail(t *testing.T) {
	provider := &fakeProvider{profile: &oauth.Profile{
		Email:     "alice@example.com",
		FirstName: "Completely",
		LastName:  "Different",
	}}
	env := newOAuthEnv(t, provider)
	env.seedUser(t, "alice@example.com", "correct-horse", false)

	result, err := env.engine.OAuthLogin(context.Background(), httptest.NewRecorder(), OAuthRequest{
		Provider: "fake",
		AuthType: OAuthTypeRegister,
		Code:     "authcode",
	})
	if err != nil {
		t.Fatalf("oauth against existing account: %v", err)
	}
	if result.NewUser {
		t.Fatal("existing account must not be reported as new")
	}
	// The session reflects the local account, not the provider profile.
	if result.User.FirstName != "Alice" {
		t.Fatalf("session user %q, want local account", result.User.FirstName)
	}

	// The local password still works.
	if _, err := env.engine.Login(context.Background(), httptest.NewRecorder(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("password login after oauth link: %v", err)
	}
}

func TestOAuthProviderFailureAborts(t *testing.T) {
	provider := &fakeProvider{err: oauth.ErrUpstream}
	env := newOAuthEnv(t, provider)

	rr := httptest.NewRecorder()
	_, err := env.engine.OAuthLogin(context.Background(), rr, OAuthRequest{
		Provider: "fake",
		AuthType: OAuthTypeRegister,
		Code:     "authcode",
	})
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Fatalf("got %v, want ErrUpstreamFailure", err)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("no cookies may be set when the provider fails")
	}
	if _, err := env.users.FindByEmail(context.Background(), "alice@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatal("no account may be created when the provider fails")
	}
}

func TestOAuthUnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.OAuthLogin(context.Background(), httptest.NewRecorder(), OAuthRequest{
		Provider: "myspace",
		AuthType: OAuthTypeLogin,
	})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("got %v, want ErrUnknownProvider", err)
	}
}
