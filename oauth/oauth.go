// Package oauth fetches identity profiles from external providers.
// Provider responses are untrusted input: every HTTP exchange is
// checked for success before any field is read, and a flow that cannot
// produce a usable email aborts without partial state.
package oauth

import (
	"context"
	"errors"
	"strings"
)

// ErrUpstream is wrapped around every provider-side failure: a failed
// token exchange, a non-2xx profile response, or a profile with no
// resolvable email.
var ErrUpstream = errors.New("oauth provider request failed")

// Profile is the normalized identity a provider resolves to. Email is
// the key the reconciler maps to a local account and is never empty on
// a successful fetch.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
	Picture   string
}

// Provider resolves client-supplied authorization material into a
// Profile. Implementations must return an error wrapping ErrUpstream
// for any provider-side failure.
type Provider interface {
	FetchProfile(ctx context.Context, creds Credentials) (*Profile, error)
}

// Credentials is what the client handed us to prove the provider
// authorization. Google flows carry AccessToken; GitHub flows carry
// the authorization Code to exchange server-side.
type Credentials struct {
	Code        string
	AccessToken string
}

// splitName breaks a display name into first/last parts the way the
// product has always stored them.
func splitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
