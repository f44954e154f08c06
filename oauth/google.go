package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Google resolves profiles from an access token the browser client
// already obtained. The server never sees the Google authorization
// code in this flow.
type Google struct {
	UserInfoURL string
	Client      *http.Client
}

// NewGoogle returns a Google provider against the production endpoint.
func NewGoogle() *Google {
	return &Google{UserInfoURL: defaultGoogleUserInfoURL, Client: http.DefaultClient}
}

type googleUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// FetchProfile calls the userinfo endpoint with the client-supplied
// access token.
func (g *Google) FetchProfile(ctx context.Context, creds Credentials) (*Profile, error) {
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrUpstream)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrUpstream, resp.StatusCode)
	}

	var user googleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email", ErrUpstream)
	}

	first, last := user.GivenName, user.FamilyName
	if first == "" && user.Name != "" {
		first, last = splitName(user.Name)
	}

	return &Profile{
		Email:     user.Email,
		FirstName: first,
		LastName:  last,
		Picture:   user.Picture,
	}, nil
}

func (g *Google) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}
