// Package middleware provides the HTTP request authenticator: the gate
// every protected route sits behind.
package middleware

import (
	"net/http"

	authcore "github.com/statroom/authcore"
)

// HeaderXSRFToken is the request header the client replays the
// anti-forgery token in. It is a header, not a cookie, so only
// same-origin script can set it.
const HeaderXSRFToken = "X-Xsrf-Token"

// RequireAuth wraps a handler with the token-pair gate. It extracts the
// session cookie and the anti-forgery header, validates them through
// the engine, and attaches the authenticated user to the request
// context. Every failure, including a missing cookie or a ledger error,
// answers 401 with a uniform body.
func RequireAuth(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				unauthorized(w)
				return
			}

			sessionToken := cookieValue(r, engine.Config().Cookie.SessionName)
			antiForgeryToken := r.Header.Get(HeaderXSRFToken)

			user, err := engine.Authenticate(r.Context(), sessionToken, antiForgeryToken)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(authcore.WithUser(r.Context(), user)))
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid token"}`))
}
