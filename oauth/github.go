package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

const defaultGitHubAPIBaseURL = "https://api.github.com"

// GitHub exchanges an authorization code server-side, then fetches the
// user profile. When the profile exposes no public email the secondary
// emails endpoint is consulted; if that also fails the whole flow
// aborts with ErrUpstream rather than guessing an identity.
type GitHub struct {
	Config     *oauth2.Config
	APIBaseURL string
	Client     *http.Client
}

// NewGitHub returns a GitHub provider against the production endpoints.
func NewGitHub(clientID, clientSecret string) *GitHub {
	return &GitHub{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     githuboauth.Endpoint,
		},
		APIBaseURL: defaultGitHubAPIBaseURL,
	}
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// FetchProfile runs the code exchange and profile lookup.
func (g *GitHub) FetchProfile(ctx context.Context, creds Credentials) (*Profile, error) {
	if creds.Code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrUpstream)
	}

	if g.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.Client)
	}

	tok, err := g.Config.Exchange(ctx, creds.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", ErrUpstream, err)
	}

	var user githubUser
	if err := g.getJSON(ctx, tok, "/user", &user); err != nil {
		return nil, err
	}

	email := user.Email
	if email == "" {
		var emails []githubEmail
		if err := g.getJSON(ctx, tok, "/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return nil, fmt.Errorf("%w: no primary email on profile", ErrUpstream)
	}

	first, last := splitName(user.Name)
	if first == "" {
		first = user.Login
	}

	return &Profile{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Picture:   user.AvatarURL,
	}, nil
}

func (g *GitHub) getJSON(ctx context.Context, tok *oauth2.Token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

func (g *GitHub) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}
