// Package httpapi exposes the authentication core over JSON HTTP. The
// routes, request shapes, and response bodies match what the web client
// expects; all protected routes sit behind the request authenticator.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	authcore "github.com/statroom/authcore"
)

// Handler carries the engine and logger into the route handlers.
type Handler struct {
	engine *authcore.Engine
	log    *slog.Logger
}

// NewHandler returns a Handler. A nil logger falls back to
// slog.Default().
func NewHandler(engine *authcore.Engine, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{engine: engine, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.engine.Login(r.Context(), w, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if result.TwoFactorRequired {
		h.writeJSON(w, http.StatusOK, map[string]any{"message": "moving to 2fa", "twofa": true})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Logged in successfully",
		"xsrfToken": result.XSRFToken,
		"user":      result.User,
	})
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Password  string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "email and password are required"})
		return
	}

	err := h.engine.Register(r.Context(), authcore.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Verification email sent"})
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Type  string `json:"type,omitempty"`
}

func (h *Handler) verifyUser(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.engine.VerifyRegistration(r.Context(), w, req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "User verified",
		"xsrfToken": result.XSRFToken,
		"user":      result.User,
	})
}

func (h *Handler) sendOTP(forLogin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if !h.decode(w, r, &req) {
			return
		}

		if err := h.engine.RequestOTP(r.Context(), req.Email, forLogin); err != nil {
			h.writeError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusOK, map[string]any{"message": "OTP sent"})
	}
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Type == "login" {
		result, err := h.engine.VerifyLoginOTP(r.Context(), w, req.Email, req.OTP)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Logged in successfully",
			"xsrfToken": result.XSRFToken,
			"user":      result.User,
		})
		return
	}

	if err := h.engine.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "OTP verified"})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookieValue(r, h.engine.Config().Cookie.RefreshName)

	result, err := h.engine.Refresh(r.Context(), w, refreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Token refreshed",
		"xsrfToken": result.XSRFToken,
		"user":      result.User,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.Config().Cookie
	sessionToken := cookieValue(r, cfg.SessionName)
	refreshToken := cookieValue(r, cfg.RefreshName)

	if err := h.engine.Logout(r.Context(), w, sessionToken, refreshToken); err != nil {
		h.log.ErrorContext(r.Context(), "logout failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Could not logout"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

type resetPasswordRequest struct {
	Email           string `json:"email,omitempty"`
	OldPassword     string `json:"oldPassword,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Passwords do not match"})
		return
	}

	user, ok := authcore.UserFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid token"})
		return
	}

	if err := h.engine.ChangePassword(r.Context(), user.Email, req.OldPassword, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated"})
}

func (h *Handler) resetPasswordAnon(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Passwords do not match"})
		return
	}

	err := h.engine.ResetPasswordAnon(r.Context(), req.Email, req.Password)
	if err != nil && !errors.Is(err, authcore.ErrUserNotFound) {
		// Unknown accounts get the same answer as known ones so the
		// endpoint cannot confirm whether an email is registered.
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset"})
}

type oauthRequest struct {
	AuthType    string `json:"authType"`
	Code        string `json:"code,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

func (h *Handler) oauthProvider(provider func(r *http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthRequest
		if !h.decode(w, r, &req) {
			return
		}
		if req.AuthType == "" {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Auth type is required"})
			return
		}

		result, err := h.engine.OAuthLogin(r.Context(), w, authcore.OAuthRequest{
			Provider:    provider(r),
			AuthType:    req.AuthType,
			Code:        req.Code,
			AccessToken: req.AccessToken,
		})
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		message := "Logged in successfully"
		if result.NewUser {
			message = "User created"
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"message":   message,
			"xsrfToken": result.XSRFToken,
			"user":      result.User,
		})
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := authcore.UserFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid token"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Token verified", "user": user})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("response encode failed", "error", err)
	}
}

// writeError maps taxonomy errors onto the transport statuses and the
// uniform messages the client relies on. Anything unmapped is a 500
// with a generic body; internals never leak.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authcore.ErrInvalidCredentials):
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid credentials"})
	case errors.Is(err, authcore.ErrUnauthenticated):
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid token"})
	case errors.Is(err, authcore.ErrInvalidOrExpiredCode):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Incorrect OTP"})
	case errors.Is(err, authcore.ErrConflict):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "User already exists"})
	case errors.Is(err, authcore.ErrUserNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]any{"message": "User not found"})
	case errors.Is(err, authcore.ErrUnknownProvider):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid provider"})
	case errors.Is(err, authcore.ErrUpstreamFailure):
		h.writeJSON(w, http.StatusBadGateway, map[string]any{"error": "could not send request"})
	default:
		h.log.ErrorContext(r.Context(), "unhandled error", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
