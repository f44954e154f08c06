package authcore

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/statroom/authcore/token"
)

// SessionBundle holds the three cooperating tokens minted for one
// authentication event plus the correlator binding them. The session
// and refresh tokens travel as httpOnly cookies; XSRFToken is handed to
// the client in the response body.
type SessionBundle struct {
	SessionToken     string
	AntiForgeryToken string
	RefreshToken     string
	// Correlator is the raw random value embedded in both the session
	// and anti-forgery tokens. Exposed for tests; clients only ever see
	// the signed tokens.
	Correlator string
}

// sessionIssuer is the single choke point every login path (password,
// 2FA completion, registration promotion, OAuth, refresh) passes
// through. It guarantees the session and anti-forgery tokens are never
// generated independently of one another.
type sessionIssuer struct {
	access  *token.Codec
	refresh *token.Codec
	tokens  TokenConfig
	cookies CookieConfig
}

func newSessionIssuer(access, refresh *token.Codec, tokens TokenConfig, cookies CookieConfig) *sessionIssuer {
	return &sessionIssuer{access: access, refresh: refresh, tokens: tokens, cookies: cookies}
}

// Issue mints a fresh correlator and the three tokens, then sets the
// session and refresh cookies on w. Token issuance happens before any
// cookie is written, so a signing failure leaves the response clean.
func (s *sessionIssuer) Issue(w http.ResponseWriter, user token.UserView) (*SessionBundle, error) {
	correlator := uuid.NewString()

	session, err := s.access.Issue(token.Claims{User: &user, XSRFToken: correlator}, s.tokens.AccessTTL)
	if err != nil {
		return nil, err
	}

	antiForgery, err := s.access.Issue(token.Claims{XSRFToken: correlator}, s.tokens.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.refresh.Issue(token.Claims{User: &user}, s.tokens.RefreshTTL)
	if err != nil {
		return nil, err
	}

	s.setCookie(w, s.cookies.SessionName, session, s.cookies.MaxAge)
	s.setCookie(w, s.cookies.RefreshName, refresh, s.cookies.MaxAge)

	return &SessionBundle{
		SessionToken:     session,
		AntiForgeryToken: antiForgery,
		RefreshToken:     refresh,
		Correlator:       correlator,
	}, nil
}

// Clear expires both auth cookies on the response.
func (s *sessionIssuer) Clear(w http.ResponseWriter) {
	s.setCookie(w, s.cookies.SessionName, "", -time.Second)
	s.setCookie(w, s.cookies.RefreshName, "", -time.Second)
}

func (s *sessionIssuer) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookies.Path,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.cookies.Secure,
		MaxAge:   int(maxAge / time.Second),
	}
	http.SetCookie(w, cookie)
}
