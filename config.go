package authcore

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full engine configuration. Construct with
// DefaultConfig or ConfigFromEnv and adjust before Build; the engine
// clones it and treats it as immutable afterwards.
type Config struct {
	Token        TokenConfig
	Cookie       CookieConfig
	OTP          OTPConfig
	Registration RegistrationConfig
	OAuth        OAuthConfig
}

// TokenConfig holds signing secrets and lifetimes. Access and refresh
// tokens are signed with independent secrets; the anti-forgery token
// shares the access secret and TTL.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// CookieConfig controls the two httpOnly cookies the session issuer
// sets. MaxAge applies to both; the tokens inside carry their own
// shorter expiries.
type CookieConfig struct {
	SessionName string
	RefreshName string
	Path        string
	Secure      bool
	MaxAge      time.Duration
}

// OTPConfig controls one-time codes for 2FA login, registration
// verification, and anonymous password reset.
type OTPConfig struct {
	Digits int
	TTL    time.Duration
}

// RegistrationConfig controls the pending-registration record parked
// between submission and OTP verification.
type RegistrationConfig struct {
	PendingTTL time.Duration
}

// OAuthConfig holds provider client credentials. Google needs none
// because the client hands the server an already-obtained access token.
type OAuthConfig struct {
	GitHubClientID     string
	GitHubClientSecret string
}

// DefaultConfig returns the production defaults: 24h sessions, 7d
// refresh, 6-digit codes with a 10 minute TTL, and the cookie names the
// web client expects. Secrets must still be provided.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "statroom",
		},
		Cookie: CookieConfig{
			SessionName: "token",
			RefreshName: "refreshToken",
			Path:        "/",
			MaxAge:      7 * 24 * time.Hour,
		},
		OTP: OTPConfig{
			Digits: 6,
			TTL:    10 * time.Minute,
		},
		Registration: RegistrationConfig{
			PendingTTL: 10 * time.Minute,
		},
	}
}

// Validate reports configuration that cannot produce a working engine.
func (c *Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
		return errors.New("token secrets are required")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("refresh TTL must not be shorter than access TTL")
	}
	if c.Cookie.SessionName == "" || c.Cookie.RefreshName == "" {
		return errors.New("cookie names are required")
	}
	if c.Cookie.SessionName == c.Cookie.RefreshName {
		return errors.New("session and refresh cookies must differ")
	}
	if c.Cookie.MaxAge <= 0 {
		return errors.New("cookie max age must be positive")
	}
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("otp digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("otp TTL must be positive")
	}
	if c.Registration.PendingTTL <= 0 {
		return errors.New("pending registration TTL must be positive")
	}
	return nil
}

type envConfig struct {
	AccessSecret       string        `env:"AUTH_ACCESS_SECRET,notEmpty"`
	RefreshSecret      string        `env:"AUTH_REFRESH_SECRET,notEmpty"`
	AccessTTL          time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"24h"`
	RefreshTTL         time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`
	Issuer             string        `env:"AUTH_TOKEN_ISSUER" envDefault:"statroom"`
	CookieSecure       bool          `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
	OTPTTL             time.Duration `env:"AUTH_OTP_TTL" envDefault:"10m"`
	GitHubClientID     string        `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `env:"GITHUB_CLIENT_SECRET"`
}

// ConfigFromEnv builds a Config from the process environment on top of
// DefaultConfig. It fails when a required secret is unset.
func ConfigFromEnv() (Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte(raw.AccessSecret)
	cfg.Token.RefreshSecret = []byte(raw.RefreshSecret)
	cfg.Token.AccessTTL = raw.AccessTTL
	cfg.Token.RefreshTTL = raw.RefreshTTL
	cfg.Token.Issuer = raw.Issuer
	cfg.Cookie.Secure = raw.CookieSecure
	cfg.OTP.TTL = raw.OTPTTL
	cfg.Registration.PendingTTL = raw.OTPTTL
	cfg.OAuth.GitHubClientID = raw.GitHubClientID
	cfg.OAuth.GitHubClientSecret = raw.GitHubClientSecret

	return cfg, cfg.Validate()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = append([]byte(nil), cfg.Token.AccessSecret...)
	out.Token.RefreshSecret = append([]byte(nil), cfg.Token.RefreshSecret...)
	return out
}
