// Package token implements the signed-token codec used for session,
// anti-forgery, and refresh credentials. Tokens are HS256 JWTs carrying
// either an authenticated user view, a correlator value, or both.
package token

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMisconfigured is returned by NewCodec when the signing key or TTL
// configuration cannot produce valid tokens. This is a startup failure,
// never a per-request one.
var ErrMisconfigured = errors.New("token codec misconfigured")

const minSecretBytes = 32

// UserView is the signable subset of a user account. It is embedded in
// session and refresh tokens and attached to the request context after
// authentication. It never carries credential material.
type UserView struct {
	FirstName        string `json:"fname"`
	LastName         string `json:"lname"`
	Email            string `json:"email"`
	Picture          string `json:"picture,omitempty"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
	IsAdmin          bool   `json:"isAdmin"`
}

// Claims is the payload signed into every token this subsystem issues.
//
// A session token carries both User and XSRFToken, an anti-forgery token
// carries only XSRFToken, and a refresh token carries User. The same
// claims type is used for all three so that the codec stays a single
// code path.
type Claims struct {
	User      *UserView `json:"user,omitempty"`
	XSRFToken string    `json:"xsrfToken,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies expiring tokens with a single HMAC secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec validates the signing secret and returns a ready codec.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("%w: secret must be at least %d bytes", ErrMisconfigured, minSecretBytes)
	}

	return &Codec{secret: append([]byte(nil), secret...), issuer: issuer}, nil
}

// Issue signs claims with an expiry of now+ttl.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("%w: non-positive ttl", ErrMisconfigured)
	}

	now := time.Now()
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.IssuedAt = jwt.NewNumericDate(now)
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks signature and expiry and returns the decoded claims.
// Callers treat any returned error uniformly as "unauthenticated"; the
// distinction between malformed, tampered, and expired exists only for
// logging.
func (c *Codec) Verify(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// MatchCorrelator reports whether two tokens' embedded correlators bind
// them to the same authentication event. This is the one place the
// session/anti-forgery relationship is checked; callers must not compare
// correlators themselves.
func MatchCorrelator(session, antiForgery *Claims) bool {
	if session == nil || antiForgery == nil {
		return false
	}
	if session.XSRFToken == "" || antiForgery.XSRFToken == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(session.XSRFToken), []byte(antiForgery.XSRFToken)) == 1
}
