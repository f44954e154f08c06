package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/statroom/authcore/middleware"
)

// Routes mounts the auth API. Public routes handle credential entry and
// token refresh; everything after the RequireAuth gate assumes a valid
// session/anti-forgery pair.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/login", h.login)
	r.Post("/register", h.register)
	r.Post("/verify-user", h.verifyUser)
	r.Post("/verify-otp", h.verifyOTP)
	r.Post("/send-otp-2fa", h.sendOTP(true))
	r.Post("/oauth/{provider}", h.oauthProvider(func(r *http.Request) string {
		return chi.URLParam(r, "provider")
	}))
	r.Get("/refresh-token", h.refresh)
	r.Patch("/reset-password-anon", h.resetPasswordAnon)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.engine))

		r.Get("/me", h.me)
		r.Post("/send-otp", h.sendOTP(false))
		r.Patch("/reset-password", h.resetPassword)
		r.Post("/logout", h.logout)
	})

	return r
}
